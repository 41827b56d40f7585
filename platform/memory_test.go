package platform_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vantagehq/go-session-gateway/platform"
)

func TestMemoryCookies(t *testing.T) {
	jar := platform.NewMemoryCookies()

	_, ok := jar.Get("session")
	require.False(t, ok)

	jar.Set(platform.Cookie{Name: "session", Value: "sealed"})
	value, ok := jar.Get("session")
	require.True(t, ok)
	require.Equal(t, "sealed", value)

	jar.Delete("session")
	_, ok = jar.Get("session")
	require.False(t, ok)
}

func TestMemoryScratch(t *testing.T) {
	t.Run("put get remove", func(t *testing.T) {
		scratch := platform.NewMemoryScratch(time.Minute)

		scratch.Put("state", "nonce-1")
		value, ok := scratch.Get("state")
		require.True(t, ok)
		require.Equal(t, "nonce-1", value)

		scratch.Remove("state")
		_, ok = scratch.Get("state")
		require.False(t, ok)
	})

	t.Run("entries expire", func(t *testing.T) {
		scratch := platform.NewMemoryScratch(20 * time.Millisecond)
		scratch.Put("state", "nonce-1")

		require.Eventually(t, func() bool {
			_, ok := scratch.Get("state")
			return !ok
		}, time.Second, 10*time.Millisecond)
	})
}

func TestMemoryBroadcast(t *testing.T) {
	t.Run("fans out to every subscriber", func(t *testing.T) {
		broadcast := platform.NewMemoryBroadcast()
		first, cancelFirst := broadcast.Subscribe("wake")
		defer cancelFirst()
		second, cancelSecond := broadcast.Subscribe("wake")
		defer cancelSecond()

		broadcast.Publish("wake")

		for _, ch := range []<-chan struct{}{first, second} {
			select {
			case <-ch:
			case <-time.After(time.Second):
				t.Fatal("subscriber never received the signal")
			}
		}
	})

	t.Run("topics are independent", func(t *testing.T) {
		broadcast := platform.NewMemoryBroadcast()
		wake, cancel := broadcast.Subscribe("wake")
		defer cancel()

		broadcast.Publish("permissions.sync")

		select {
		case <-wake:
			t.Fatal("signal leaked across topics")
		case <-time.After(20 * time.Millisecond):
		}
	})

	t.Run("cancelled subscriptions stop receiving", func(t *testing.T) {
		broadcast := platform.NewMemoryBroadcast()
		ch, cancel := broadcast.Subscribe("wake")
		cancel()

		broadcast.Publish("wake")

		select {
		case <-ch:
			t.Fatal("cancelled subscriber received a signal")
		case <-time.After(20 * time.Millisecond):
		}
	})
}

func TestMemoryPopupOpener(t *testing.T) {
	t.Run("open delivers messages until closed", func(t *testing.T) {
		opener := &platform.MemoryPopupOpener{}
		popup, messages, err := opener.Open("https://sso.example.com/login", 480, 640)
		require.NoError(t, err)
		require.False(t, popup.Closed())

		opener.Opened()[0].Deliver(platform.Message{Type: "SSO_TOKEN"})
		msg := <-messages
		require.Equal(t, "SSO_TOKEN", msg.Type)

		popup.Close()
		require.True(t, popup.Closed())
	})

	t.Run("blocked opener refuses", func(t *testing.T) {
		opener := &platform.MemoryPopupOpener{Blocked: true}
		_, _, err := opener.Open("https://sso.example.com/login", 480, 640)
		require.ErrorIs(t, err, platform.ErrPopupBlocked)
		require.Empty(t, opener.Opened())
	})
}
