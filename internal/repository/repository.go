package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/marvingabia/da-agrimanage-gabia/config"
)

// Repository aggregates every storage adapter.
type Repository struct {
	User         UserRepository
	DutySession  DutySessionRepository
	Notification NotificationLogRepository
}

// NewRepository wires the GORM adapters and the duty session store named by dutyStore.
// The duty store is an explicit choice: "memory" keeps sessions in process, "database" persists them.
func NewRepository(db *gorm.DB, dutyStore string) (*Repository, error) {
	var duty DutySessionRepository
	switch dutyStore {
	case config.DutyStoreMemory:
		duty = NewMemoryDutySessionRepo()
	case config.DutyStoreDatabase:
		duty = NewDutySessionRepo(db)
	default:
		return nil, fmt.Errorf("unknown duty session store %q", dutyStore)
	}

	return &Repository{
		User:         NewUserRepo(db),
		DutySession:  duty,
		Notification: NewNotificationLogRepo(db),
	}, nil
}
