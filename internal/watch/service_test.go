package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/treescope/internal/broadcast"
	"github.com/grovetools/treescope/pkg/models"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger.WithField("component", "test")
}

func newTestService(t *testing.T, root string) *Service {
	t.Helper()
	registry := broadcast.New(testLogger())
	svc := NewService(Config{
		Root:         root,
		Debounce:     50 * time.Millisecond,
		RetryBackoff: 50 * time.Millisecond,
	}, registry, testLogger())
	t.Cleanup(svc.Close)
	return svc
}

// collect drains update messages into a slice until the subscriber
// channel closes or the test ends.
func collect(t *testing.T, sub *broadcast.Subscriber) func() []models.StreamMessage {
	t.Helper()
	var mu = make(chan models.StreamMessage, 64)
	go func() {
		for msg := range sub.Messages() {
			mu <- msg
		}
		close(mu)
	}()
	return func() []models.StreamMessage {
		var out []models.StreamMessage
		for {
			select {
			case msg, ok := <-mu:
				if !ok {
					return out
				}
				out = append(out, msg)
			default:
				return out
			}
		}
	}
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "hello.txt"), []byte("hi"), 0644))

	svc := newTestService(t, root)
	sub, err := svc.Subscribe()
	require.NoError(t, err)
	defer svc.Unsubscribe(sub)

	select {
	case msg := <-sub.Messages():
		assert.Equal(t, models.MessageUpdate, msg.Type)
		require.NotNil(t, msg.Tree)
		require.Len(t, msg.Tree.Children, 1)
		assert.Equal(t, "hello.txt", msg.Tree.Children[0].Name)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial snapshot delivered")
	}
}

func TestDebounceCoalescesBurst(t *testing.T) {
	root := t.TempDir()
	svc := newTestService(t, root)

	sub, err := svc.Subscribe()
	require.NoError(t, err)
	defer svc.Unsubscribe(sub)
	<-sub.Messages() // initial snapshot

	drain := collect(t, sub)

	// A burst of creates within one quiet period.
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, filepath.Base(t.Name())+string(rune('a'+i))+".txt"), []byte("x"), 0644))
	}

	require.Eventually(t, func() bool {
		return len(drain()) >= 1
	}, 3*time.Second, 20*time.Millisecond, "burst should produce an update")

	// Allow a second debounce window to elapse; no further updates
	// may arrive for the same burst.
	time.Sleep(200 * time.Millisecond)
	updates := 0
	for _, msg := range drain() {
		if msg.Type == models.MessageUpdate {
			updates++
		}
	}
	assert.LessOrEqual(t, updates, 1, "one burst must yield at most one rescan broadcast")
}

func TestMetadataOnlyChangeDoesNotBroadcast(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "stable.txt")
	require.NoError(t, os.WriteFile(file, []byte("same"), 0644))

	svc := newTestService(t, root)
	sub, err := svc.Subscribe()
	require.NoError(t, err)
	defer svc.Unsubscribe(sub)
	<-sub.Messages() // initial snapshot

	drain := collect(t, sub)

	// mtime bump only: no path/name/shape change.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(file, past, past))

	time.Sleep(300 * time.Millisecond)
	for _, msg := range drain() {
		assert.NotEqual(t, models.MessageUpdate, msg.Type, "metadata churn must not broadcast")
	}
}

func TestStructuralChangeBroadcasts(t *testing.T) {
	root := t.TempDir()
	svc := newTestService(t, root)

	sub, err := svc.Subscribe()
	require.NoError(t, err)
	defer svc.Unsubscribe(sub)
	<-sub.Messages()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "newdir"), 0755))

	select {
	case msg := <-sub.Messages():
		assert.Equal(t, models.MessageUpdate, msg.Type)
		require.Len(t, msg.Tree.Children, 1)
		assert.Equal(t, "newdir", msg.Tree.Children[0].Name)
	case <-time.After(3 * time.Second):
		t.Fatal("structural change did not broadcast")
	}
}

func TestNewSubdirectoryIsWatched(t *testing.T) {
	root := t.TempDir()
	svc := newTestService(t, root)

	sub, err := svc.Subscribe()
	require.NoError(t, err)
	defer svc.Unsubscribe(sub)
	<-sub.Messages()

	sint := filepath.Join(root, "inner")
	require.NoError(t, os.MkdirAll(sint, 0755))

	select {
	case <-sub.Messages():
	case <-time.After(3 * time.Second):
		t.Fatal("mkdir did not broadcast")
	}

	// A change inside the new directory must also be seen.
	require.NoError(t, os.WriteFile(filepath.Join(sint, "deep.txt"), []byte("x"), 0644))

	select {
	case msg := <-sub.Messages():
		require.Len(t, msg.Tree.Children, 1)
		require.Len(t, msg.Tree.Children[0].Children, 1)
		assert.Equal(t, "deep.txt", msg.Tree.Children[0].Children[0].Name)
	case <-time.After(3 * time.Second):
		t.Fatal("change inside new directory not observed")
	}
}

func TestLastUnsubscribeDisarmsWatch(t *testing.T) {
	root := t.TempDir()
	svc := newTestService(t, root)

	sub, err := svc.Subscribe()
	require.NoError(t, err)
	svc.Unsubscribe(sub)

	svc.mu.Lock()
	running := svc.running
	svc.mu.Unlock()
	assert.False(t, running, "watch should disarm with zero subscribers")

	// Re-arming on the next subscriber works.
	sub2, err := svc.Subscribe()
	require.NoError(t, err)
	defer svc.Unsubscribe(sub2)

	svc.mu.Lock()
	running = svc.running
	svc.mu.Unlock()
	assert.True(t, running)
}

func TestSubscribeMissingRoot(t *testing.T) {
	svc := newTestService(t, filepath.Join(t.TempDir(), "gone"))
	_, err := svc.Subscribe()
	require.Error(t, err)
}

func TestSnapshotWithoutSubscribers(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0644))

	svc := newTestService(t, root)
	snap, err := svc.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Children, 1)
	assert.Equal(t, "a.txt", snap.Children[0].Name)
}

func TestSnapshotFreshAfterDisarm(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "old.txt"), []byte("a"), 0644))

	svc := newTestService(t, root)
	sub, err := svc.Subscribe()
	require.NoError(t, err)
	svc.Unsubscribe(sub)

	// The registry still holds the pre-disarm snapshot; a change made
	// now is invisible to the watch.
	require.NoError(t, os.WriteFile(filepath.Join(root, "new.txt"), []byte("b"), 0644))

	snap, err := svc.Snapshot()
	require.NoError(t, err)

	var names []string
	for _, child := range snap.Children {
		names = append(names, child.Name)
	}
	assert.Contains(t, names, "new.txt", "disarmed service must re-scan instead of serving the cached tree")
}

// injectWatchError feeds an error into the armed watcher's error
// channel, as a failing OS watch handle would.
func injectWatchError(t *testing.T, svc *Service, err error) {
	t.Helper()
	svc.mu.Lock()
	w := svc.watcher
	svc.mu.Unlock()
	require.NotNil(t, w, "watch must be armed before injecting a failure")
	w.errors <- err
}

func TestWatchFailureBroadcastsAndRetries(t *testing.T) {
	root := t.TempDir()
	svc := newTestService(t, root)

	sub, err := svc.Subscribe()
	require.NoError(t, err)
	defer svc.Unsubscribe(sub)
	<-sub.Messages() // initial snapshot

	injectWatchError(t, svc, fmt.Errorf("watch handle lost"))

	select {
	case msg := <-sub.Messages():
		assert.Equal(t, models.MessageError, msg.Type)
		assert.Contains(t, msg.Message, root)
	case <-time.After(2 * time.Second):
		t.Fatal("watch failure was not broadcast")
	}

	// A subscriber remains, so the watch re-arms after the backoff.
	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return svc.running
	}, 2*time.Second, 10*time.Millisecond, "watch should retry while subscribers remain")
}

func TestWatchFailureRearmsLazilyWithoutSubscribers(t *testing.T) {
	root := t.TempDir()
	svc := newTestService(t, root)

	sub, err := svc.Subscribe()
	require.NoError(t, err)
	<-sub.Messages() // initial snapshot

	injectWatchError(t, svc, fmt.Errorf("watch handle lost"))

	select {
	case msg := <-sub.Messages():
		assert.Equal(t, models.MessageError, msg.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("watch failure was not broadcast")
	}

	// Leave before the backoff elapses: the retry must be skipped.
	svc.Unsubscribe(sub)
	time.Sleep(200 * time.Millisecond)

	svc.mu.Lock()
	running := svc.running
	svc.mu.Unlock()
	assert.False(t, running, "no retry without subscribers")

	// The next subscriber re-arms the watch.
	sub2, err := svc.Subscribe()
	require.NoError(t, err)
	defer svc.Unsubscribe(sub2)

	svc.mu.Lock()
	running = svc.running
	svc.mu.Unlock()
	assert.True(t, running)
}
