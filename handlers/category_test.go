package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"trasua-backend/models"
)

func TestGetCategories(t *testing.T) {
	db := freshDB()
	router := setupCategoryRouter(db)

	seedCategory(db, "Milk Tea")
	seedCategory(db, "Fruit Tea")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("GET", "/api/categories", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if cats := responseList(w); len(cats) != 2 {
		t.Errorf("expected 2 categories, got %d", len(cats))
	}
}

func TestCreateCategorySuccess(t *testing.T) {
	db := freshDB()
	router := setupCategoryRouter(db)

	_, adminToken := seedTestUser(db, "catadmin@test.com", "admin")

	body := map[string]interface{}{
		"name_vi": "Tra trai cay",
		"name_en": "Fruit Tea",
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/admin/categories", body, adminToken))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&models.Category{}).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 category, got %d", count)
	}
}

func TestCreateCategoryRequiresNames(t *testing.T) {
	db := freshDB()
	router := setupCategoryRouter(db)

	_, adminToken := seedTestUser(db, "catadmin2@test.com", "admin")

	body := map[string]interface{}{"name_vi": "Thieu ten"}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/admin/categories", body, adminToken))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDeleteCategoryRefusedWhenNotEmpty(t *testing.T) {
	db := freshDB()
	router := setupCategoryRouter(db)

	_, adminToken := seedTestUser(db, "catadmin3@test.com", "admin")
	cat := seedCategory(db, "Milk Tea")
	seedDrink(db, "Classic Milk Tea", cat.ID, 29000)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("DELETE", "/api/admin/categories/"+cat.ID.String(), nil, adminToken))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
	if msg := responseMessage(w); msg != "category.hasProducts" {
		t.Errorf("expected message category.hasProducts, got %q", msg)
	}
}

func TestDeleteCategoryEmpty(t *testing.T) {
	db := freshDB()
	router := setupCategoryRouter(db)

	_, adminToken := seedTestUser(db, "catadmin4@test.com", "admin")
	cat := seedCategory(db, "Seasonal")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("DELETE", "/api/admin/categories/"+cat.ID.String(), nil, adminToken))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&models.Category{}).Where("id = ?", cat.ID).Count(&count)
	if count != 0 {
		t.Error("expected category to be soft deleted")
	}
}
