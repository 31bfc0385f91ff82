package listing

import (
	"errors"
	"testing"
)

func TestCreateValidation(t *testing.T) {
	svc := NewService(NewInMemory())

	cases := []struct {
		name    string
		listing Listing
	}{
		{"missing title", Listing{City: "Pune", RentAmount: 5000}},
		{"blank title", Listing{Title: "   ", City: "Pune"}},
		{"missing city", Listing{Title: "Sunrise PG", RentAmount: 5000}},
		{"negative rent", Listing{Title: "Sunrise PG", City: "Pune", RentAmount: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(t.Context(), "owner-1", tc.listing); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCreateAssignsIdentityAndOwner(t *testing.T) {
	svc := NewService(NewInMemory())

	created, err := svc.Create(t.Context(), "owner-1", Listing{
		Title: "  Sunrise PG  ", City: " Bengaluru ", RentAmount: 9500,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.OwnerID != "owner-1" {
		t.Fatalf("owner = %q", created.OwnerID)
	}
	if created.Title != "Sunrise PG" || created.City != "Bengaluru" {
		t.Fatalf("fields not trimmed: %q %q", created.Title, created.City)
	}

	got, err := svc.Get(t.Context(), created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Sunrise PG" {
		t.Fatalf("round trip title = %q", got.Title)
	}
}

func TestListFiltersByCityCaseInsensitive(t *testing.T) {
	svc := NewService(NewInMemory())
	for _, l := range []Listing{
		{Title: "Sunrise PG", City: "Bengaluru", RentAmount: 9500},
		{Title: "Lakeview Hostel", City: "Pune", RentAmount: 8000},
		{Title: "Metro Rooms", City: "bengaluru", RentAmount: 6500},
	} {
		if _, err := svc.Create(t.Context(), "owner-1", l); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := svc.List(t.Context(), Filter{City: "BENGALURU"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(got))
	}
}

func TestListClampsLimit(t *testing.T) {
	svc := NewService(NewInMemory())
	for i := 0; i < 3; i++ {
		if _, err := svc.Create(t.Context(), "owner-1", Listing{Title: "Room", City: "Pune"}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := svc.List(t.Context(), Filter{Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected limit 2, got %d", len(got))
	}
}

func TestUpdateAndDelete(t *testing.T) {
	svc := NewService(NewInMemory())
	created, err := svc.Create(t.Context(), "owner-1", Listing{Title: "Sunrise PG", City: "Pune", RentAmount: 9500})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rent := int64(9900)
	updated, err := svc.Update(t.Context(), created.ID, Update{RentAmount: &rent})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.RentAmount != 9900 {
		t.Fatalf("rent = %d", updated.RentAmount)
	}

	blank := "  "
	if _, err := svc.Update(t.Context(), created.ID, Update{Title: &blank}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank title, got %v", err)
	}

	if err := svc.Delete(t.Context(), created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(t.Context(), created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.Delete(t.Context(), created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
