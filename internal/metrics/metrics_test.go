package metrics

import (
	"sync"
	"testing"
)

func TestMetrics(t *testing.T) {
	m := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.RecordFetch(i%2 == 0)
		}(i)
	}
	wg.Wait()

	m.RecordSuperseded()
	m.RecordLogin(false)
	m.RecordLogin(true)
	m.RecordLogout()
	m.RecordAuthRejected()
	m.RecordProxy(true)
	m.IncrementConnections()
	m.IncrementConnections()
	m.DecrementConnections()

	s := m.Snapshot()
	if s.Fetches != 10 || s.FetchFailures != 5 {
		t.Errorf("fetches = %d/%d, want 10/5", s.Fetches, s.FetchFailures)
	}
	if s.Superseded != 1 {
		t.Errorf("Superseded = %d, want 1", s.Superseded)
	}
	if s.Logins != 1 || s.LoginErrors != 1 || s.Logouts != 1 || s.AuthRejected != 1 {
		t.Errorf("session counters = %+v", s)
	}
	if s.ProxyRequests != 1 || s.ProxyErrors != 1 {
		t.Errorf("proxy counters = %d/%d, want 1/1", s.ProxyRequests, s.ProxyErrors)
	}
	if s.LiveConnections != 1 {
		t.Errorf("LiveConnections = %d, want 1", s.LiveConnections)
	}
}
