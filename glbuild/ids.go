package glbuild

// IDAllocator hands out material instance ids and per-kind process ids.
// The zero value is ready to use. IDAllocator is not safe for concurrent use.
type IDAllocator struct {
	instances int
	processes map[string]int
	kinds     []string
}

// NewIDAllocator returns a ready to use IDAllocator.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{processes: make(map[string]int)}
}

// NextInstance returns a new instance id. The first id returned is 1.
func (a *IDAllocator) NextInstance() int {
	a.instances++
	return a.instances
}

// ProcessID returns the process id of a material kind. The id is assigned the
// first time the kind is requested and is stable for the allocator's lifetime.
// Process ids start at 1; 0 is reserved for the environment branch.
func (a *IDAllocator) ProcessID(kind string) int {
	if a.processes == nil {
		a.processes = make(map[string]int)
	}
	pid, ok := a.processes[kind]
	if !ok {
		a.kinds = append(a.kinds, kind)
		pid = len(a.kinds)
		a.processes[kind] = pid
	}
	return pid
}

// Kind returns the kind a process id was assigned to, or the empty string.
func (a *IDAllocator) Kind(processID int) string {
	if processID <= 0 || processID > len(a.kinds) {
		return ""
	}
	return a.kinds[processID-1]
}

// Reset forgets all assigned ids. Materials built before a Reset must not be
// mixed in a scene with materials built after it.
func (a *IDAllocator) Reset() {
	a.instances = 0
	clear(a.processes)
	a.kinds = a.kinds[:0]
}
