package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mzevk/estate-api/internal/model"
)

// demoContent is the starter content installed by SeedDemo, keyed by
// collection. Kept deliberately small — it exists so a freshly deployed
// site isn't a wall of empty sections.
var demoContent = map[string][]model.Record{
	"portfolio": {
		{"title": "City centre 3+1 apartment for rent", "location": "Ankara / Altındağ", "tag": "Kiralık", "image": "", "link": "#"},
		{"title": "Luxury 1+1 apartment for sale", "location": "Ankara / Çankaya", "tag": "Satılık", "image": "", "link": "#"},
	},
	"blog": {
		{"title": "Two million properties sold in the first eight months", "date": "2025-09-14", "image": "", "link": "#"},
		{"title": "A new era in the housing market", "date": "2025-09-09", "image": "", "link": "#"},
	},
	"gallery": {
		{"url": "/uploads/demo-1.jpg", "category": "Genel"},
		{"url": "/uploads/demo-2.jpg", "category": "Genel"},
	},
	"videos": {
		{"title": "Becoming a property professional", "youtubeId": "LFq5vXOnNaY"},
		{"title": "Branding, part one", "youtubeId": "Rx5CB_lJ8fQ"},
	},
}

// SeedDemo inserts sample content into each content collection that is
// still empty. Collections that already hold records are left alone, so
// repeated calls never duplicate anything.
func (s *CollectionService) SeedDemo(ctx context.Context) error {
	for _, collection := range model.CRUDCollections {
		items, ok := demoContent[collection]
		if !ok {
			continue
		}
		existing, err := s.store.List(ctx, collection)
		if err != nil {
			return fmt.Errorf("checking %s before seeding: %w", collection, err)
		}
		if len(existing) > 0 {
			continue
		}
		for _, item := range items {
			if _, err := s.store.Insert(ctx, collection, item); err != nil {
				return fmt.Errorf("seeding %s: %w", collection, err)
			}
		}
		s.logger.Info("demo content seeded",
			slog.String("collection", collection),
			slog.Int("count", len(items)),
		)
	}
	s.backups.NotifyWrite()
	return nil
}
