package session

// ResponseSet maps a participant to their answers, indexed by actual
// question index. Slots stay nil until answered; every participant is
// expected to hold a full-length array, but short legacy arrays are
// tolerated on read and grown on write.
type ResponseSet map[string][]*Answer

// Init allocates a full-length all-nil answer array for participant.
func (r ResponseSet) Init(participant string, n int) {
	if n < 0 {
		n = 0
	}
	r[participant] = make([]*Answer, n)
}

// Save writes an answer at the actual index. Writes are unconditional:
// a participant resubmitting overwrites their earlier answer.
func (r ResponseSet) Save(participant string, actual int, a Answer, n int) bool {
	if actual < 0 || actual >= n {
		return false
	}
	arr := r[participant]
	if len(arr) < n {
		grown := make([]*Answer, n)
		copy(grown, arr)
		arr = grown
	}
	arr[actual] = &a
	r[participant] = arr
	return true
}

// At returns the answer at the actual index, or nil. Missing trailing
// slots in a short array read as nil.
func (r ResponseSet) At(participant string, actual int) *Answer {
	arr, ok := r[participant]
	if !ok || actual < 0 || actual >= len(arr) {
		return nil
	}
	return arr[actual]
}

// Replace rebuilds participant's array from a sparse actual-index map.
// Slots absent from the map become nil.
func (r ResponseSet) Replace(participant string, answers map[int]Answer, n int) {
	if n < 0 {
		n = 0
	}
	arr := make([]*Answer, n)
	for i, a := range answers {
		if i >= 0 && i < n {
			aa := a
			arr[i] = &aa
		}
	}
	r[participant] = arr
}

// Count returns how many of participant's n slots hold an answer.
func (r ResponseSet) Count(participant string, n int) int {
	arr := r[participant]
	if len(arr) < n {
		n = len(arr)
	}
	c := 0
	for i := 0; i < n; i++ {
		if arr[i] != nil {
			c++
		}
	}
	return c
}

// Complete reports whether participant has answered all n questions.
func (r ResponseSet) Complete(participant string, n int) bool {
	arr := r[participant]
	if len(arr) < n {
		return false
	}
	for i := 0; i < n; i++ {
		if arr[i] == nil {
			return false
		}
	}
	return true
}

// Status returns (answered, total) over the whole session, where total
// is participants × questions.
func (r ResponseSet) Status(participants []string, n int) (answered, total int) {
	for _, p := range participants {
		answered += r.Count(p, n)
	}
	return answered, len(participants) * n
}
