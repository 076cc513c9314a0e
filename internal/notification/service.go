package notification

import (
	"sync"
)

// DefaultPerUser bounds each user's queue; the oldest message is dropped
// first.
const DefaultPerUser = 20

// NotificationService holds flash messages per user until they are read.
type NotificationService struct {
	mu      sync.Mutex
	queues  map[string][]string
	perUser int
}

func NewNotificationService(perUser int) *NotificationService {
	if perUser <= 0 {
		perUser = DefaultPerUser
	}
	return &NotificationService{
		queues:  make(map[string][]string),
		perUser: perUser,
	}
}

func (ns *NotificationService) Push(userID, message string) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	q := append(ns.queues[userID], message)
	if len(q) > ns.perUser {
		q = q[len(q)-ns.perUser:]
	}
	ns.queues[userID] = q
}

// Drain returns the user's messages oldest first and empties the queue.
func (ns *NotificationService) Drain(userID string) []string {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	q := ns.queues[userID]
	delete(ns.queues, userID)
	if q == nil {
		return []string{}
	}
	return q
}

func (ns *NotificationService) Pending(userID string) int {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return len(ns.queues[userID])
}
