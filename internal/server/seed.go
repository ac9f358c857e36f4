package server

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// SeedDemo creates an admin account and a demo trail when the user
// collection is empty. Idempotent: does nothing on a populated store.
func SeedDemo(ctx context.Context, logger *slog.Logger, store Store, adminPhone, adminPassword string) error {
	count, err := store.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := userDoc{
		ID:           newID(),
		Name:         "Admin",
		Department:   "Operations",
		PhoneNumber:  adminPhone,
		PasswordHash: string(hash),
		Role:         RoleAdmin,
		CreatedAt:    nowUTC(),
	}
	if err := store.CreateUser(ctx, admin); err != nil {
		return err
	}

	demo := []struct {
		level  int
		places []placeDoc
	}{
		{1, []placeDoc{
			{Name: "Library", Answer: "shelf-42", Image: "/uploads/library.png"},
			{Name: "Auditorium", Answer: "stage-left", Image: "/uploads/auditorium.png"},
		}},
		{2, []placeDoc{
			{Name: "Cafeteria", Answer: "counter-3", Image: "/uploads/cafeteria.png"},
			{Name: "Gymnasium", Answer: "hoop-north", Image: "/uploads/gym.png"},
		}},
		{3, []placeDoc{
			{Name: "Physics Lab", Answer: "bench-7", Image: "/uploads/physics.png"},
			{Name: "Chemistry Lab", Answer: "fume-hood", Image: "/uploads/chemistry.png"},
			{Name: "Workshop", Answer: "lathe-2", Image: "/uploads/workshop.png"},
		}},
		{4, []placeDoc{
			{Name: "Clock Tower", Answer: "bell-room", Image: "/uploads/tower.png"},
			{Name: "Amphitheatre", Answer: "row-zero", Image: "/uploads/amphi.png"},
		}},
		{5, []placeDoc{
			{Name: "Main Gate", Answer: "pillar-east", Image: "/uploads/gate.png"},
			{Name: "Fountain", Answer: "basin-rim", Image: "/uploads/fountain.png"},
		}},
	}
	for _, d := range demo {
		for _, p := range d.places {
			if _, err := store.AppendPlace(ctx, d.level, p); err != nil {
				return fmt.Errorf("seeding level %d: %w", d.level, err)
			}
		}
	}

	logger.Info("seeded admin account and demo trail", "phone", adminPhone)
	return nil
}
