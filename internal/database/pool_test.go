package database

import (
	"testing"
	"time"

	"opsboard/internal/models"

	"gorm.io/gorm/logger"
)

func TestDefaultPoolConfig(t *testing.T) {
	config := DefaultPoolConfig()

	if config.Driver != DriverSQLite {
		t.Errorf("Expected Driver to be sqlite, got %s", config.Driver)
	}

	if config.MaxOpenConns != 25 {
		t.Errorf("Expected MaxOpenConns to be 25, got %d", config.MaxOpenConns)
	}

	if config.MaxIdleConns != 10 {
		t.Errorf("Expected MaxIdleConns to be 10, got %d", config.MaxIdleConns)
	}

	if config.ConnMaxLifetime != time.Hour {
		t.Errorf("Expected ConnMaxLifetime to be 1 hour, got %v", config.ConnMaxLifetime)
	}

	if config.ConnMaxIdleTime != time.Minute*30 {
		t.Errorf("Expected ConnMaxIdleTime to be 30 minutes, got %v", config.ConnMaxIdleTime)
	}

	if config.LogLevel != logger.Info {
		t.Errorf("Expected LogLevel to be Info, got %v", config.LogLevel)
	}
}

func TestNewDatabasePool_WithNilConfig(t *testing.T) {
	_, err := NewDatabasePool(nil)

	if err == nil {
		t.Error("Expected error due to empty DSN, got nil")
	}
}

func TestNewDatabasePool_UnknownDriver(t *testing.T) {
	config := DefaultPoolConfig()
	config.Driver = "oracle"
	config.DSN = "whatever"

	_, err := NewDatabasePool(config)

	if err == nil {
		t.Error("Expected error for unsupported driver, got nil")
	}
}

func TestPoolConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		config  *PoolConfig
		wantErr bool
	}{
		{
			name: "In-memory sqlite",
			config: &PoolConfig{
				Driver:   DriverSQLite,
				DSN:      ":memory:",
				LogLevel: logger.Silent,
			},
			wantErr: false,
		},
		{
			name: "Zero values configuration",
			config: &PoolConfig{
				DSN:      "",
				LogLevel: logger.Silent,
			},
			wantErr: true,
		},
		{
			name: "Negative values configuration",
			config: &PoolConfig{
				Driver:          DriverSQLite,
				DSN:             ":memory:",
				MaxOpenConns:    -1,
				MaxIdleConns:    -1,
				ConnMaxLifetime: -time.Hour,
				ConnMaxIdleTime: -time.Minute,
				LogLevel:        logger.Silent,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := NewDatabasePool(tt.config)

			if tt.wantErr && err == nil {
				t.Error("Expected error but pool creation succeeded")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected successful pool creation but got error: %v", err)
			}
			if pool != nil {
				pool.Close()
			}
		})
	}
}

func TestDatabasePool_Stats_WithoutConnection(t *testing.T) {
	pool := &DatabasePool{
		DB: nil,
		config: &PoolConfig{
			MaxOpenConns: 10,
		},
	}

	stats := pool.Stats()

	if _, hasError := stats["error"]; !hasError {
		t.Error("Expected error in stats when DB is nil")
	}
}

func TestDatabasePool_Health_WithoutConnection(t *testing.T) {
	pool := &DatabasePool{DB: nil}

	if err := pool.Health(); err == nil {
		t.Error("Expected error when checking health with nil DB")
	}
}

func TestDatabasePool_Close_WithoutConnection(t *testing.T) {
	pool := &DatabasePool{DB: nil}

	if err := pool.Close(); err != nil {
		t.Errorf("Expected no error when closing nil DB, got: %v", err)
	}
}

func TestOpenSQLite_SingleConnection(t *testing.T) {
	pool, err := OpenSQLite(":memory:", logger.Silent)
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	defer pool.Close()

	if err := pool.Health(); err != nil {
		t.Errorf("Expected healthy pool, got: %v", err)
	}

	stats := pool.Stats()
	if stats["max_open_connections"] != 1 {
		t.Errorf("Expected sqlite pool to be limited to 1 connection, got %v", stats["max_open_connections"])
	}

	var enabled int
	if err := pool.DB.Raw("PRAGMA foreign_keys").Scan(&enabled).Error; err != nil {
		t.Fatalf("Failed to read foreign_keys pragma: %v", err)
	}
	if enabled != 1 {
		t.Errorf("Expected foreign keys to be enabled, got %d", enabled)
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{":memory:", ":memory:?_foreign_keys=1&_busy_timeout=5000"},
		{"data/db.sqlite?cache=shared", "data/db.sqlite?cache=shared&_foreign_keys=1&_busy_timeout=5000"},
		{"file.db?_foreign_keys=0", "file.db?_foreign_keys=0"},
	}

	for _, tt := range tests {
		if got := sqliteDSN(tt.in); got != tt.want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMigrate_SeedsLabelsOnce(t *testing.T) {
	pool, err := OpenSQLite(":memory:", logger.Silent)
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	defer pool.Close()

	if err := Migrate(pool.DB); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if err := Migrate(pool.DB); err != nil {
		t.Fatalf("Second Migrate failed: %v", err)
	}

	var count int64
	pool.DB.Model(&models.Label{}).Count(&count)
	if count != int64(len(models.DefaultLabels)) {
		t.Errorf("Expected %d labels, got %d", len(models.DefaultLabels), count)
	}
}

func TestMigrate_CascadesBoardDelete(t *testing.T) {
	pool, err := OpenSQLite(":memory:", logger.Silent)
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	defer pool.Close()
	db := pool.DB

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	board := models.Board{Name: "Ops"}
	db.Create(&board)
	column := models.Column{Name: "To Do", BoardID: board.ID}
	db.Create(&column)
	task := models.Task{Title: "Patch", ColumnID: column.ID, BoardID: board.ID, Priority: models.PriorityMedium}
	db.Create(&task)
	db.Create(&models.Attachment{TaskID: task.ID, Filename: "a.txt", OriginalName: "a.txt", Path: "/tmp/a.txt"})
	db.Create(&models.ActivityLog{TaskID: task.ID, Action: models.ActionCreated})

	if err := db.Delete(&models.Board{}, board.ID).Error; err != nil {
		t.Fatalf("Failed to delete board: %v", err)
	}

	for _, model := range []interface{}{&models.Column{}, &models.Task{}, &models.Attachment{}, &models.ActivityLog{}} {
		var count int64
		db.Model(model).Count(&count)
		if count != 0 {
			t.Errorf("Expected cascade to remove %T rows, %d left", model, count)
		}
	}
}

func TestMigrate_UserDeleteNullsCreator(t *testing.T) {
	pool, err := OpenSQLite(":memory:", logger.Silent)
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	defer pool.Close()
	db := pool.DB

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	user := models.User{Name: "ana"}
	db.Create(&user)
	board := models.Board{Name: "Ops"}
	db.Create(&board)
	column := models.Column{Name: "To Do", BoardID: board.ID}
	db.Create(&column)
	task := models.Task{Title: "Patch", ColumnID: column.ID, BoardID: board.ID, Priority: models.PriorityLow, CreatedBy: &user.ID}
	db.Create(&task)

	if err := db.Delete(&models.User{}, user.ID).Error; err != nil {
		t.Fatalf("Failed to delete user: %v", err)
	}

	var reloaded models.Task
	if err := db.First(&reloaded, task.ID).Error; err != nil {
		t.Fatalf("Task should survive user deletion: %v", err)
	}
	if reloaded.CreatedBy != nil {
		t.Errorf("Expected created_by to be NULL after user deletion, got %v", *reloaded.CreatedBy)
	}
}

func TestOpenSQLite_TransactionsOnSingleConnection(t *testing.T) {
	pool, err := OpenSQLite(":memory:", logger.Silent)
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	defer pool.Close()
	db := pool.DB

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	tx := db.Begin()
	if err := tx.Create(&models.User{Name: "rolled-back"}).Error; err != nil {
		t.Errorf("Failed to insert in transaction: %v", err)
	}
	tx.Rollback()

	var count int64
	db.Model(&models.User{}).Where("name = ?", "rolled-back").Count(&count)
	if count != 0 {
		t.Errorf("Expected 0 users after rollback, got %d", count)
	}

	tx = db.Begin()
	if err := tx.Create(&models.User{Name: "committed"}).Error; err != nil {
		t.Errorf("Failed to insert in transaction: %v", err)
	}
	tx.Commit()

	db.Model(&models.User{}).Where("name = ?", "committed").Count(&count)
	if count != 1 {
		t.Errorf("Expected 1 user after commit, got %d", count)
	}
}
