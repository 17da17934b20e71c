//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"time"

	"lan-chat/domain"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging during supervision.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Transport is the active room link: the hub when hosting, the connector when joined.
// Run pumps inbound frames until the link ends; Close releases the socket and is idempotent.
type Transport interface {
	Worker
	Send(msg domain.ChatMessage) error
	Close() error
}

// Inbox receives chat messages decoded off the network.
type Inbox interface {
	Push(msg domain.ChatMessage)
}

// Directory is the set of rooms currently visible on the subnet.
type Directory interface {
	Upsert(a domain.PresenceAnnouncement, seenAt time.Time)
	Prune(now time.Time) int
	Snapshot(now time.Time) []domain.PeerRecord
}
