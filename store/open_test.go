package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/config"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/store"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	for _, driver := range []string{config.DriverMemory, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			s, err := store.Open(ctx, config.StoreConfig{Driver: driver, SQLitePath: ":memory:"}, nil)
			require.NoError(t, err)
			defer s.Close()

			id, err := s.Employees().Insert(ctx, attendance.Employee{Name: "Ana"})
			require.NoError(t, err)
			emps, err := s.Employees().Fetch(ctx, generic.Filter{})
			require.NoError(t, err)
			require.Len(t, emps, 1)
			assert.Equal(t, id, emps[0].ID)
		})
	}

	_, err := store.Open(ctx, config.StoreConfig{Driver: "mysql"}, nil)
	assert.Error(t, err)
}
