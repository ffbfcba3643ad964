package events

import "sync"

type envelope struct {
	Kind string
	Data []byte
}

// queue is a mutex guarded fifo holding events not yet handed to the writer.
type queue struct {
	lock  sync.Mutex
	items []envelope
}

func newQueue() *queue {
	return &queue{}
}

// Push appends msg and reports the queue size before the append.
func (q *queue) Push(msg envelope) int {
	q.lock.Lock()
	defer q.lock.Unlock()

	prev := len(q.items)
	q.items = append(q.items, msg)
	return prev
}

func (q *queue) Pop() (envelope, bool) {
	q.lock.Lock()
	defer q.lock.Unlock()

	if len(q.items) == 0 {
		return envelope{}, false
	}
	msg := q.items[0]
	q.items = q.items[1:]
	return msg, true
}

func (q *queue) Size() int {
	q.lock.Lock()
	defer q.lock.Unlock()

	return len(q.items)
}
