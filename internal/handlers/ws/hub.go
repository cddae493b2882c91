package ws

import (
	"sync"

	"github.com/mohammadHusnain/SKILLSWAPP/internal/models"
)

// Member is anything that can receive group events. Deliver must not
// block on the hub: it is called outside the hub's lock, but a slow member
// still stalls the fan-out loop.
type Member interface {
	Deliver(event GroupEvent)
}

// Hub is the in-process group router. Groups are named sets of members;
// joining, leaving, and broadcasting are safe for concurrent use. The hub
// knows nothing about conversations or users beyond the group names built
// with ConversationGroup and NotificationGroup.
type Hub struct {
	mu      sync.RWMutex
	groups  map[string]map[Member]struct{}
	members map[Member]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		groups:  make(map[string]map[Member]struct{}),
		members: make(map[Member]map[string]struct{}),
	}
}

func (h *Hub) Join(group string, m Member) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.groups[group] == nil {
		h.groups[group] = make(map[Member]struct{})
	}
	h.groups[group][m] = struct{}{}

	if h.members[m] == nil {
		h.members[m] = make(map[string]struct{})
	}
	h.members[m][group] = struct{}{}
}

func (h *Hub) Leave(group string, m Member) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(group, m)
}

func (h *Hub) leaveLocked(group string, m Member) {
	if set, ok := h.groups[group]; ok {
		delete(set, m)
		if len(set) == 0 {
			delete(h.groups, group)
		}
	}
	if set, ok := h.members[m]; ok {
		delete(set, group)
		if len(set) == 0 {
			delete(h.members, m)
		}
	}
}

// LeaveAll removes a member from every group it joined. Called on
// disconnect.
func (h *Hub) LeaveAll(m Member) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for group := range h.members[m] {
		h.leaveLocked(group, m)
	}
}

// Broadcast fans an event out to every member of a group. The member set
// is snapshotted under the read lock and delivery happens outside it, so a
// member may Join or Leave from inside Deliver without deadlocking.
func (h *Hub) Broadcast(group string, event GroupEvent) {
	h.mu.RLock()
	set := h.groups[group]
	members := make([]Member, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	h.mu.RUnlock()

	for _, m := range members {
		m.Deliver(event)
	}
}

func (h *Hub) GroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// Push delivers a persisted notification to the user's live sessions. It
// satisfies the notification service's Pusher; a user with no sessions
// simply has an empty group.
func (h *Hub) Push(userID string, notification *models.Notification) {
	h.Broadcast(NotificationGroup(userID), GroupEvent{
		Kind: KindNotification,
		Payload: map[string]interface{}{
			"type":         EventNotification,
			"notification": notification.ToResponse(),
		},
	})
}
