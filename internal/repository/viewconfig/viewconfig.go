package viewconfig

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/videowall/server/internal/domain"
)

var ErrNotFound = errors.New("view config not found")

// Config is the persisted form of a saved wall arrangement. Slots holds the
// JSON-encoded assignment array so the whole record fits one redis hash.
type Config struct {
	Id       string `redis:"id"`
	Name     string `redis:"name"`
	ViewMode string `redis:"view_mode"`
	Slots    string `redis:"slots"`
}

func FromDomain(cfg domain.ViewConfig) (Config, error) {
	slots, err := json.Marshal(cfg.Slots)
	if err != nil {
		return Config{}, fmt.Errorf("failed to encode slots: %w", err)
	}

	return Config{
		Id:       cfg.Id,
		Name:     cfg.Name,
		ViewMode: string(cfg.ViewMode),
		Slots:    string(slots),
	}, nil
}

func (c Config) ToDomain() (domain.ViewConfig, error) {
	var slots []*int
	if c.Slots != "" {
		if err := json.Unmarshal([]byte(c.Slots), &slots); err != nil {
			return domain.ViewConfig{}, fmt.Errorf("failed to decode slots: %w", err)
		}
	}

	return domain.ViewConfig{
		Id:       c.Id,
		Name:     c.Name,
		ViewMode: domain.Layout(c.ViewMode),
		Slots:    slots,
	}, nil
}
