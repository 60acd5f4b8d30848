package state

import (
	"time"

	"github.com/google/uuid"
)

func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		RunID: uuid.New(),
		start: time.Now(),
	}
}
