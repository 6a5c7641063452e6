package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"expenses/internal/config"
	"expenses/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		if _, err := FromAppConfig(nil); err == nil {
			t.Fatal("expected error for nil config")
		}
	})

	t.Run("invalid backend", func(t *testing.T) {
		_, err := FromAppConfig(&config.Config{DataBackend: "sheets"})
		if err == nil {
			t.Fatal("expected error for unknown backend")
		}
		if !strings.Contains(err.Error(), "valid: sqlite, postgres, memory") {
			t.Errorf("error should list valid backends, got %v", err)
		}
	})

	t.Run("copies fields", func(t *testing.T) {
		cfg, err := FromAppConfig(&config.Config{
			DataBackend:  "postgres",
			DatabaseURL:  "postgres://localhost/expenses",
			AMQPURL:      "amqp://localhost/",
			AMQPExchange: "ex",
			AMQPQueue:    "q",
		})
		if err != nil {
			t.Fatalf("FromAppConfig() error = %v", err)
		}
		if cfg.Type != PostgresBackend || cfg.DatabaseURL != "postgres://localhost/expenses" || cfg.AMQPQueue != "q" {
			t.Fatalf("unexpected config: %+v", cfg)
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without url", Config{Type: PostgresBackend}, true},
		{"unknown", Config{Type: "csv"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	want := []string{"sqlite", "postgres", "memory"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestCreateBackend(t *testing.T) {
	tests := []struct {
		name string
		cfg  func(t *testing.T) Config
	}{
		{"memory", func(t *testing.T) Config { return Config{Type: MemoryBackend} }},
		{"sqlite", func(t *testing.T) Config {
			return Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "expenses.db")}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			result, err := NewFactory(nil).CreateBackend(ctx, tt.cfg(t))
			if err != nil {
				t.Fatalf("CreateBackend() error = %v", err)
			}
			defer func() {
				if err := result.Cleanup(); err != nil {
					t.Errorf("cleanup: %v", err)
				}
			}()

			_, err = result.Service.Create(ctx, core.ExpenseCreate{
				Description: "Coffee",
				Amount:      decimal.RequireFromString("5.00"),
				Date:        core.NewDate(2024, 1, 10),
			})
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			total, err := result.Service.Total(ctx)
			if err != nil || core.FormatAmount(total) != "5.00" {
				t.Fatalf("total = %s err=%v", core.FormatAmount(total), err)
			}
		})
	}
}

func TestCreateBackend_InvalidConfig(t *testing.T) {
	if _, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend}); err == nil {
		t.Fatal("expected error for missing sqlite path")
	}
}
