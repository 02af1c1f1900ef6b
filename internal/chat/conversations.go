package chat

// Thread is the ordered history exchanged with one counterpart.
type Thread struct {
	Counterpart int64
	Name        string
	Expanded    bool
	messages    []Message
}

// Messages returns a copy of the thread's messages in arrival order.
func (t *Thread) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages in the thread.
func (t *Thread) Len() int { return len(t.messages) }

// Conversations indexes threads by counterpart. Threads are created lazily
// and never removed. Not safe for concurrent use.
type Conversations struct {
	threads map[int64]*Thread
	order   []int64
}

// NewConversations returns an empty store.
func NewConversations() *Conversations {
	return &Conversations{threads: make(map[int64]*Thread)}
}

// Append adds m to the counterpart's thread, creating it with name if needed.
// The touched thread becomes the expanded one.
func (c *Conversations) Append(counterpart int64, name string, m Message) *Thread {
	t, ok := c.threads[counterpart]
	if !ok {
		t = &Thread{Counterpart: counterpart, Name: name}
		c.threads[counterpart] = t
		c.order = append(c.order, counterpart)
	}
	t.messages = append(t.messages, m)

	for _, other := range c.threads {
		other.Expanded = false
	}
	t.Expanded = true
	return t
}

// Has reports whether a thread exists for counterpart.
func (c *Conversations) Has(counterpart int64) bool {
	_, ok := c.threads[counterpart]
	return ok
}

// Get returns the counterpart's messages in arrival order.
func (c *Conversations) Get(counterpart int64) []Message {
	t, ok := c.threads[counterpart]
	if !ok {
		return nil
	}
	return t.Messages()
}

// Thread returns the counterpart's thread.
func (c *Conversations) Thread(counterpart int64) (*Thread, bool) {
	t, ok := c.threads[counterpart]
	return t, ok
}

// Counterparts lists known counterparts in thread creation order.
func (c *Conversations) Counterparts() []int64 {
	out := make([]int64, len(c.order))
	copy(out, c.order)
	return out
}
