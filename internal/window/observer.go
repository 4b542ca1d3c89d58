package window

// Observer delivers measurements for one rendered row into the height cache.
//
// A slot holds at most one attached observer. An observer goes inert once detached or once
// its index holds a different row identity, so a late measurement can't land in a slot that
// was reused by another row.
type Observer struct {
	list     *List
	index    int
	id       string
	attached bool
}

// Observe returns the observer for the row currently at index i, attaching a new one if the
// slot is empty or was held by a different row. Out-of-range indices return nil.
func (l *List) Observe(i int) *Observer {
	if i < 0 || i >= l.Len() {
		return nil
	}
	id := l.seq.Row(i).ID
	if o, ok := l.observers[i]; ok {
		if o.attached && o.id == id {
			return o
		}
		o.Detach()
	}
	o := &Observer{list: l, index: i, id: id, attached: true}
	l.observers[i] = o
	return o
}

// Observing reports how many observers are attached.
func (l *List) Observing() int {
	return len(l.observers)
}

func (l *List) detachAll() {
	for _, o := range l.observers {
		o.Detach()
	}
}

func (o *Observer) Attached() bool {
	return o != nil && o.attached
}

// Detach tears the observer down and frees its slot.
func (o *Observer) Detach() {
	if o == nil || !o.attached {
		return
	}
	o.attached = false
	if cur, ok := o.list.observers[o.index]; ok && cur == o {
		delete(o.list.observers, o.index)
	}
}

// Report records a measured size for the observed row. It returns false without error when
// the observer is stale or the change is below the cache's noise threshold.
func (o *Observer) Report(size int) (bool, error) {
	if o == nil || !o.attached {
		return false, nil
	}
	l := o.list
	if o.index >= l.Len() || l.seq.Row(o.index).ID != o.id {
		o.Detach()
		return false, nil
	}
	l.syncCount()
	return l.cache.Record(o.index, size)
}
