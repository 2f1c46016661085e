package mailer

import "sync"

// Recorded is a single email captured by the Recorder.
type Recorded struct {
	Subject    string
	Body       string
	Recipients []string
}

// Recorder is an in-memory mailer used by tests. It captures every send
// instead of delivering anything.
type Recorder struct {
	mu    sync.Mutex
	sends []Recorded
	// FailWith, when set, is returned by SendTo without recording.
	FailWith error
}

// NewRecorder returns an enabled in-memory mailer.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) IsEnabled() bool { return true }

func (r *Recorder) SendTo(subject, body string, recipients []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailWith != nil {
		return r.FailWith
	}

	r.sends = append(r.sends, Recorded{
		Subject:    subject,
		Body:       body,
		Recipients: append([]string(nil), recipients...),
	})
	return nil
}

// Sends returns a copy of everything captured so far.
func (r *Recorder) Sends() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recorded(nil), r.sends...)
}

// Count returns how many emails were captured.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sends)
}
