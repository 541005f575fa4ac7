package store

import (
	"testing"

	"github.com/google/uuid"

	"moonui/internal/models"
)

func TestCategoryStoreCreateAndTree(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	ownerID := testOwner(t, db)

	parentSlug := "test-tree-parent-" + uuid.NewString()[:8]
	childSlug := "test-tree-child-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanCategories(t, db, childSlug, parentSlug) })

	parent, err := s.Create(&models.Category{
		Kind:    models.KindComponent,
		Name:    "Buttons",
		Slug:    parentSlug,
		OwnerID: ownerID,
	})
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}

	child, err := s.Create(&models.Category{
		Kind:     models.KindComponent,
		Name:     "Icon Buttons",
		Slug:     childSlug,
		ParentID: &parent.ID,
		OwnerID:  ownerID,
	})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	flat, err := s.FlatTree(models.KindComponent)
	if err != nil {
		t.Fatalf("FlatTree: %v", err)
	}

	var parentDepth, childDepth = -1, -1
	for i, c := range flat {
		switch c.ID {
		case parent.ID:
			parentDepth = c.Depth
		case child.ID:
			childDepth = c.Depth
			// Child must come after its parent in depth-first order.
			foundParent := false
			for j := 0; j < i; j++ {
				if flat[j].ID == parent.ID {
					foundParent = true
				}
			}
			if !foundParent {
				t.Error("child listed before parent in flat tree")
			}
		}
	}
	if parentDepth != 0 {
		t.Errorf("parent depth: got %d, want 0", parentDepth)
	}
	if childDepth != 1 {
		t.Errorf("child depth: got %d, want 1", childDepth)
	}
}

func TestCategoryDeleteReRootsChildren(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	ownerID := testOwner(t, db)

	parentSlug := "test-reroot-parent-" + uuid.NewString()[:8]
	childSlug := "test-reroot-child-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanCategories(t, db, childSlug, parentSlug) })

	parent, err := s.Create(&models.Category{
		Kind: models.KindGradient, Name: "Warm", Slug: parentSlug, OwnerID: ownerID,
	})
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	child, err := s.Create(&models.Category{
		Kind: models.KindGradient, Name: "Sunset", Slug: childSlug,
		ParentID: &parent.ID, OwnerID: ownerID,
	})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	if err := s.Delete(parent.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	orphan, err := s.FindByID(child.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if orphan == nil {
		t.Fatal("child deleted along with parent")
	}
	if orphan.ParentID != nil {
		t.Errorf("parent_id: got %v, want nil after parent delete", orphan.ParentID)
	}
}

func TestCategoryKindScoping(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	ownerID := testOwner(t, db)

	slug := "test-kind-scope-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanCategories(t, db, slug) })

	_, err := s.Create(&models.Category{
		Kind: models.KindDesign, Name: "Posters", Slug: slug, OwnerID: ownerID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	designs, err := s.ListByKind(models.KindDesign)
	if err != nil {
		t.Fatalf("ListByKind: %v", err)
	}
	found := false
	for _, c := range designs {
		if c.Slug == slug {
			found = true
		}
	}
	if !found {
		t.Error("expected category in its own kind's listing")
	}

	components, err := s.ListByKind(models.KindComponent)
	if err != nil {
		t.Fatalf("ListByKind: %v", err)
	}
	for _, c := range components {
		if c.Slug == slug {
			t.Error("design category leaked into component listing")
		}
	}
}
