package store

import (
	"context"
	"errors"
	"fmt"
)

// Seed fills an empty roster with a small set of demo doctors and patients,
// every patient assigned to every doctor. A roster that already has a first
// doctor is left untouched.
func Seed(ctx context.Context, st RosterStore) error {
	if _, err := st.GetDoctor(ctx, 1); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("seed: %w", err)
	}

	doctors := []*Doctor{
		{FirstName: "Grace", LastName: "Holloway", Specialty: "Family Medicine"},
		{FirstName: "Omar", LastName: "Reyes", Specialty: "Cardiology"},
		{FirstName: "Lena", LastName: "Park", Specialty: "Pediatrics"},
	}
	patients := []*Patient{
		{FirstName: "Maya", LastName: "Turner"},
		{FirstName: "Caleb", LastName: "Brooks"},
		{FirstName: "Nora", LastName: "Fields"},
		{FirstName: "Ivan", LastName: "Petrov"},
	}

	for _, d := range doctors {
		if err := st.CreateDoctor(ctx, d); err != nil {
			return fmt.Errorf("seed doctor %s: %w", d.LastName, err)
		}
	}
	for _, p := range patients {
		if err := st.CreatePatient(ctx, p); err != nil {
			return fmt.Errorf("seed patient %s: %w", p.LastName, err)
		}
	}
	for _, d := range doctors {
		for _, p := range patients {
			if err := st.AssignPatient(ctx, d.ID, p.ID); err != nil {
				return fmt.Errorf("seed assignment: %w", err)
			}
		}
	}
	return nil
}
