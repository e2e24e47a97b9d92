package broadcast

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/treescope/pkg/models"
	"github.com/grovetools/treescope/pkg/tree"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger.WithField("component", "test")
}

func snapshotNamed(name string) *tree.Node {
	return &tree.Node{
		Kind: tree.KindFolder,
		Name: tree.RootPath,
		Path: tree.RootPath,
		Children: []*tree.Node{
			{Kind: tree.KindFile, Name: name, Path: tree.ChildPath(tree.RootPath, name)},
		},
	}
}

func TestRegisterDeliversLatestSnapshot(t *testing.T) {
	r := New(testLogger())
	r.SetLatest(snapshotNamed("a.txt"))

	sub := r.Register()
	defer r.Unregister(sub)

	msg := <-sub.Messages()
	assert.Equal(t, models.MessageUpdate, msg.Type)
	require.NotNil(t, msg.Tree)
	assert.Equal(t, "a.txt", msg.Tree.Children[0].Name)
}

func TestRegisterWithoutSnapshot(t *testing.T) {
	r := New(testLogger())
	sub := r.Register()
	defer r.Unregister(sub)

	select {
	case msg := <-sub.Messages():
		t.Fatalf("unexpected message %+v", msg)
	default:
	}
}

func TestBroadcastFanOut(t *testing.T) {
	r := New(testLogger())
	x := r.Register()
	y := r.Register()
	defer r.Unregister(y)

	r.Broadcast(snapshotNamed("one.txt"))

	for _, sub := range []*Subscriber{x, y} {
		msg := <-sub.Messages()
		assert.Equal(t, models.MessageUpdate, msg.Type)
		assert.Equal(t, "one.txt", msg.Tree.Children[0].Name)
	}

	// Saturate x (never read again) while keeping y drained, so the
	// final broadcast prunes only x.
	for i := 0; i < subscriberBuffer; i++ {
		r.Broadcast(snapshotNamed("filler.txt"))
		<-y.Messages()
	}
	r.Broadcast(snapshotNamed("two.txt"))

	assert.Equal(t, 1, r.Count(), "saturated subscriber should be pruned")

	msg := <-y.Messages()
	assert.Equal(t, "two.txt", msg.Tree.Children[0].Name)
}

func TestBroadcastPreservesPerSubscriberOrder(t *testing.T) {
	r := New(testLogger())
	sub := r.Register()
	defer r.Unregister(sub)

	r.Broadcast(snapshotNamed("first.txt"))
	r.Broadcast(snapshotNamed("second.txt"))

	first := <-sub.Messages()
	second := <-sub.Messages()
	assert.Equal(t, "first.txt", first.Tree.Children[0].Name)
	assert.Equal(t, "second.txt", second.Tree.Children[0].Name)
}

func TestUnregisterIdempotent(t *testing.T) {
	r := New(testLogger())
	sub := r.Register()
	r.Unregister(sub)
	r.Unregister(sub)
	assert.Equal(t, 0, r.Count())
}

func TestBroadcastErrorKeepsLatest(t *testing.T) {
	r := New(testLogger())
	r.SetLatest(snapshotNamed("good.txt"))
	sub := r.Register()
	defer r.Unregister(sub)
	<-sub.Messages() // replayed snapshot

	r.BroadcastError("watch failed")

	msg := <-sub.Messages()
	assert.Equal(t, models.MessageError, msg.Type)
	assert.Equal(t, "watch failed", msg.Message)
	assert.Equal(t, "good.txt", r.Latest().Children[0].Name)
}

func TestLifecycleHooks(t *testing.T) {
	r := New(testLogger())
	var firsts, lasts int
	r.SetLifecycleHooks(func() { firsts++ }, func() { lasts++ })

	a := r.Register()
	b := r.Register()
	assert.Equal(t, 1, firsts)

	r.Unregister(a)
	assert.Equal(t, 0, lasts)
	r.Unregister(b)
	assert.Equal(t, 1, lasts)
}
