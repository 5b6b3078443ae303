package detector

import "github.com/arguscam/argus/pkg/gen"

// SYNC-WATCHER-CHANNEL-SIZE
const WatcherChannelSize = 100

// Register to receive detection results for a specific detector.
func (m *Manager) AddWatcher(name string) chan *Result {
	m.watchersLock.Lock()
	defer m.watchersLock.Unlock()
	ch := make(chan *Result, WatcherChannelSize)
	m.watchers[name] = append(m.watchers[name], ch)
	return ch
}

// Unregister from detection results for a specific detector
func (m *Manager) RemoveWatcher(name string, ch chan *Result) {
	m.watchersLock.Lock()
	defer m.watchersLock.Unlock()
	for i, w := range m.watchers[name] {
		if w == ch {
			m.watchers[name] = gen.DeleteFromSliceUnordered(m.watchers[name], i)
			return
		}
	}
	m.log.Warnf("Manager.RemoveWatcher failed to find channel for detector %v", name)
}

// Add a watcher that is interested in all detector activity
func (m *Manager) AddWatcherAll() chan *Result {
	m.watchersLock.Lock()
	defer m.watchersLock.Unlock()
	ch := make(chan *Result, WatcherChannelSize)
	m.watchersAll = append(m.watchersAll, ch)
	return ch
}

// Unregister from detection results of all detectors
func (m *Manager) RemoveWatcherAll(ch chan *Result) {
	m.watchersLock.Lock()
	defer m.watchersLock.Unlock()
	for i, w := range m.watchersAll {
		if w == ch {
			m.watchersAll = gen.DeleteFromSliceUnordered(m.watchersAll, i)
			return
		}
	}
	m.log.Warnf("Manager.RemoveWatcherAll failed to find channel")
}

func (m *Manager) sendToWatchers(result *Result) {
	m.watchersLock.RLock()
	defer m.watchersLock.RUnlock()
	// If a watcher stalls, we drop results rather than stalling other
	// watchers (or the detection path itself).
	for _, ch := range m.watchers[result.Detector] {
		// SYNC-WATCHER-CHANNEL-SIZE
		if len(ch) >= cap(ch)*9/10 {
			m.log.Warnf("Watcher on detector %v is falling behind. I am going to drop results.", result.Detector)
		} else {
			ch <- result
		}
	}
	for _, ch := range m.watchersAll {
		// SYNC-WATCHER-CHANNEL-SIZE
		if len(ch) >= cap(ch)*9/10 {
			m.log.Warnf("Watcher on all detectors is falling behind. I am going to drop results.")
		} else {
			ch <- result
		}
	}
}
