package request

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannel_BlocksUntilSend(t *testing.T) {
	t.Parallel()

	ch := NewChannel[string]()
	got := make(chan string, 1)
	go func() {
		v, ok := ch.GetData()
		assert.True(t, ok)
		got <- v
	}()

	require.Eventually(t, ch.IsWaiting, time.Second, time.Millisecond)
	select {
	case <-got:
		t.Fatal("GetData returned before SendData")
	case <-time.After(20 * time.Millisecond):
	}

	ch.SendData("abc")
	select {
	case v := <-got:
		assert.Equal(t, "abc", v)
	case <-time.After(time.Second):
		t.Fatal("GetData was not released")
	}
	assert.False(t, ch.IsWaiting())
}

func TestChannel_SendWithoutWaiterPanics(t *testing.T) {
	t.Parallel()
	ch := NewChannel[int]()
	require.Panics(t, func() { ch.SendData(1) })
}

func TestChannel_Cancel(t *testing.T) {
	t.Parallel()

	ch := NewChannel[int]()
	ch.Cancel()

	result := make(chan bool, 1)
	go func() {
		_, ok := ch.GetData()
		result <- ok
	}()
	require.Eventually(t, ch.IsWaiting, time.Second, time.Millisecond)
	ch.Cancel()
	assert.False(t, <-result)
}

func TestQueue_UserInputLength(t *testing.T) {
	t.Parallel()

	q := NewQueue[int, string]()
	notified := make(chan struct{}, 1)
	result := make(chan int, 1)

	go func() {
		v, ok := q.GetData("abc", func() { notified <- struct{}{} })
		assert.True(t, ok)
		result <- v
	}()

	<-notified
	require.Equal(t, 1, q.Len())
	q.OnDataRequest(func(s string) (int, bool) { return len(s), true })

	select {
	case v := <-result:
		assert.Equal(t, 3, v)
	case <-time.After(time.Second):
		t.Fatal("requester was not released")
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueue_FIFOAcrossProducers(t *testing.T) {
	t.Parallel()

	q := NewQueue[int, int]()
	const producers = 8
	var wg sync.WaitGroup
	results := make([]int, producers)
	notified := make(chan struct{}, producers)

	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, ok := q.GetData(i, func() { notified <- struct{}{} })
			assert.True(t, ok)
			results[i] = v
		}(i)
	}

	var served []int
	for i := 0; i < producers; i++ {
		<-notified
		q.OnDataRequest(func(arg int) (int, bool) {
			served = append(served, arg)
			return arg * 10, true
		})
	}
	wg.Wait()

	for i, v := range results {
		assert.Equal(t, i*10, v, "each producer receives the answer to its own request")
	}
	assert.Len(t, served, producers)
}

func TestQueue_OnDataRequestEmptyPanics(t *testing.T) {
	t.Parallel()
	q := NewQueue[int, int]()
	require.Panics(t, func() {
		q.OnDataRequest(func(int) (int, bool) { return 0, true })
	})
}

func TestQueue_ProviderDeclines(t *testing.T) {
	t.Parallel()

	q := NewQueue[string, string]()
	result := make(chan bool, 1)
	go func() {
		_, ok := q.GetData("question", nil)
		result <- ok
	}()
	require.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, time.Millisecond)
	q.OnDataRequest(func(string) (string, bool) { return "", false })
	assert.False(t, <-result)
}

func TestQueue_CancelAllAndReopen(t *testing.T) {
	t.Parallel()

	q := NewQueue[int, int]()
	result := make(chan bool, 2)
	for i := 0; i < 2; i++ {
		go func(i int) {
			_, ok := q.GetData(i, nil)
			result <- ok
		}(i)
	}
	require.Eventually(t, func() bool { return q.Len() == 2 }, time.Second, time.Millisecond)

	q.CancelAll()
	assert.False(t, <-result)
	assert.False(t, <-result)

	_, ok := q.GetData(3, func() { t.Error("closed queue must not notify") })
	assert.False(t, ok)

	q.Reopen()
	go func() {
		v, ok := q.GetData(4, nil)
		result <- ok && v == 40
	}()
	require.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, time.Millisecond)
	q.OnDataRequest(func(a int) (int, bool) { return a * 10, true })
	assert.True(t, <-result)
}
