package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bkastelic/fieldstock/internal/db"
	"github.com/bkastelic/fieldstock/internal/model"
	"github.com/bkastelic/fieldstock/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, *sql.DB) {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret, zap.NewNop())
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, database
}

func createUser(t *testing.T, database *sql.DB, fullName, email, password, role, company string) *model.Actor {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	user, err := store.CreateUser(context.Background(), database, fullName, email, string(hash), role, company, "")
	if err != nil {
		t.Fatalf("creating user %s: %v", email, err)
	}
	return user
}

func login(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login as %s failed: %d", email, resp.StatusCode)
	}

	var loginResp map[string]any
	json.NewDecoder(resp.Body).Decode(&loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatal("empty token from login")
	}
	return token
}

func seedUnit(t *testing.T, database *sql.DB, code, status, location string) *model.Unit {
	t.Helper()
	err := store.BulkInsertUnits(context.Background(), database, []model.Unit{{
		Code:          code,
		Serial:        "SN-" + code,
		Phone:         "071000000",
		Type:          "Alarm Panel",
		Status:        status,
		Location:      location,
		PurchaseOrder: "PO-1",
	}})
	if err != nil {
		t.Fatalf("seeding unit %s: %v", code, err)
	}
	unit, err := store.GetUnitByCode(context.Background(), database, code)
	if err != nil || unit == nil {
		t.Fatalf("reading seeded unit %s: %v", code, err)
	}
	return unit
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func TestLoginEndpoint(t *testing.T) {
	server, database := setupTestServer(t)
	createUser(t, database, "Root Admin", "admin@example.com", "password123", model.RoleAdmin, "")

	body, _ := json.Marshal(map[string]string{"email": "admin@example.com", "password": "wrong-password"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Correct credentials.
	login(t, server, "admin@example.com", "password123")
}

func TestUnauthenticatedAccess(t *testing.T) {
	server, _ := setupTestServer(t)

	resp, _ := http.Get(server.URL + "/api/units")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutRevokesToken(t *testing.T) {
	server, database := setupTestServer(t)
	createUser(t, database, "Root Admin", "admin@example.com", "password123", model.RoleAdmin, "")
	token := login(t, server, "admin@example.com", "password123")

	req, _ := authRequest("POST", server.URL+"/api/auth/logout", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The revoked token must no longer work.
	req, _ = authRequest("GET", server.URL+"/api/units", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestFieldUserSeesOnlyOwnUnits(t *testing.T) {
	server, database := setupTestServer(t)
	createUser(t, database, "Jane Doe", "jane@example.com", "password123", model.RoleUser, "Acme Security")
	seedUnit(t, database, "CS1", model.StatusDispatched, "Jane Doe")
	warehouse := seedUnit(t, database, "CS2", model.StatusStoreroom, model.LocationWarehouse)

	token := login(t, server, "jane@example.com", "password123")

	req, _ := authRequest("GET", server.URL+"/api/units", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	var units []model.Unit
	json.NewDecoder(resp.Body).Decode(&units)
	resp.Body.Close()

	if len(units) != 1 || units[0].Code != "CS1" {
		t.Errorf("expected only CS1 visible, got %+v", units)
	}

	// Out-of-scope units are invisible even by direct lookup.
	req, _ = authRequest("GET", server.URL+"/api/barcode/CS2", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for out-of-scope barcode, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = authRequest("GET", server.URL+fmt.Sprintf("/api/units/%d", warehouse.ID), token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for out-of-scope unit, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestBarcodeLookup(t *testing.T) {
	server, database := setupTestServer(t)
	createUser(t, database, "Root Admin", "admin@example.com", "password123", model.RoleAdmin, "")
	unit := seedUnit(t, database, "CS1", model.StatusStoreroom, model.LocationWarehouse)

	token := login(t, server, "admin@example.com", "password123")

	// Lookup works by asset code and by serial.
	for _, scanned := range []string{"CS1", unit.Serial} {
		req, _ := authRequest("GET", server.URL+"/api/barcode/"+scanned, token, nil)
		resp, _ := http.DefaultClient.Do(req)
		var got model.Unit
		json.NewDecoder(resp.Body).Decode(&got)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || got.ID != unit.ID {
			t.Errorf("barcode %q: status %d, unit %+v", scanned, resp.StatusCode, got)
		}
	}

	// The photo route resolves independently of the barcode route.
	req, _ := authRequest("GET", server.URL+fmt.Sprintf("/api/units/%d/photo", unit.ID), token, nil)
	resp, _ := http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unit without photo, got %d", resp.StatusCode)
	}
}

func TestCompanyAdminSeesCompanyUnits(t *testing.T) {
	server, database := setupTestServer(t)
	createUser(t, database, "Carol Boss", "carol@example.com", "password123", model.RoleCompanyAdmin, "Acme Security")
	createUser(t, database, "Jane Doe", "jane@example.com", "password123", model.RoleUser, "Acme Security")
	createUser(t, database, "Bob Other", "bob@example.com", "password123", model.RoleUser, "Rival Corp")
	seedUnit(t, database, "CS1", model.StatusDispatched, "Jane Doe")
	seedUnit(t, database, "CS2", model.StatusDispatched, "Carol Boss")
	seedUnit(t, database, "CS3", model.StatusDispatched, "Bob Other")

	token := login(t, server, "carol@example.com", "password123")

	req, _ := authRequest("GET", server.URL+"/api/units", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	var units []model.Unit
	json.NewDecoder(resp.Body).Decode(&units)
	resp.Body.Close()

	if len(units) != 2 {
		t.Fatalf("expected 2 company units, got %d", len(units))
	}
	for _, u := range units {
		if u.Code == "CS3" {
			t.Errorf("unit from another company visible: %+v", u)
		}
	}
}

func TestDispatchFlow(t *testing.T) {
	server, database := setupTestServer(t)
	createUser(t, database, "Root Admin", "admin@example.com", "password123", model.RoleAdmin, "")
	tech := createUser(t, database, "John Tech", "john@example.com", "password123", model.RoleUser, "Acme Security")
	seedUnit(t, database, "CS1", model.StatusStoreroom, model.LocationWarehouse)
	seedUnit(t, database, "CS2", model.StatusStoreroom, model.LocationWarehouse)

	token := login(t, server, "admin@example.com", "password123")

	req, _ := authRequest("POST", server.URL+"/api/units/dispatch", token, map[string]any{
		"codes":         []string{"CS1", "CS2", "MISSING"},
		"technician_id": tech.ID,
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dispatch: expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Updated  []string `json:"updated"`
		NotFound []string `json:"not_found"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	resp.Body.Close()

	if len(result.Updated) != 2 || len(result.NotFound) != 1 {
		t.Errorf("unexpected batch result: %+v", result)
	}

	unit, _ := store.GetUnitByCode(context.Background(), database, "CS1")
	if unit.Status != model.StatusDispatched || unit.Location != "John Tech" {
		t.Errorf("CS1 not dispatched: status=%q location=%q", unit.Status, unit.Location)
	}
}

func TestFieldUserCannotDispatch(t *testing.T) {
	server, database := setupTestServer(t)
	createUser(t, database, "Jane Doe", "jane@example.com", "password123", model.RoleUser, "Acme Security")
	token := login(t, server, "jane@example.com", "password123")

	req, _ := authRequest("POST", server.URL+"/api/units/dispatch", token, map[string]any{
		"codes":         []string{"CS1"},
		"technician_id": 1,
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for field user dispatching, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAdminCannotTransit(t *testing.T) {
	server, database := setupTestServer(t)
	createUser(t, database, "Root Admin", "admin@example.com", "password123", model.RoleAdmin, "")
	token := login(t, server, "admin@example.com", "password123")

	req, _ := authRequest("POST", server.URL+"/api/units/transit", token, map[string]any{
		"codes": []string{"CS1"},
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for admin transit, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestTransitFlow(t *testing.T) {
	server, database := setupTestServer(t)
	createUser(t, database, "Jane Doe", "jane@example.com", "password123", model.RoleUser, "Acme Security")
	seedUnit(t, database, "CS1", model.StatusDispatched, "Jane Doe")
	seedUnit(t, database, "CS2", model.StatusStoreroom, model.LocationWarehouse)

	token := login(t, server, "jane@example.com", "password123")

	req, _ := authRequest("POST", server.URL+"/api/units/transit", token, map[string]any{
		"codes": []string{"CS1", "CS2"},
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("transit: expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Updated  []string `json:"updated"`
		NotFound []string `json:"not_found"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	resp.Body.Close()

	// The warehouse unit is outside Jane's scope and must look missing.
	if len(result.Updated) != 1 || result.Updated[0] != "CS1" || len(result.NotFound) != 1 {
		t.Errorf("unexpected batch result: %+v", result)
	}

	unit, _ := store.GetUnitByCode(context.Background(), database, "CS1")
	if unit.Status != model.StatusTransit || unit.Location != model.LocationOffice {
		t.Errorf("CS1 not in transit: status=%q location=%q", unit.Status, unit.Location)
	}
}

func TestStaffStatusOnlyEdit(t *testing.T) {
	server, database := setupTestServer(t)
	createUser(t, database, "Warehouse Staff", "staff@example.com", "password123", model.RoleStaff, "")
	unit := seedUnit(t, database, "CS1", model.StatusStoreroom, model.LocationWarehouse)

	token := login(t, server, "staff@example.com", "password123")

	req, _ := authRequest("PUT", server.URL+fmt.Sprintf("/api/units/%d", unit.ID), token, map[string]string{
		"status": model.StatusRefurb,
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status edit: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	updated, _ := store.GetUnitByCode(context.Background(), database, "CS1")
	if updated.Status != model.StatusRefurb {
		t.Errorf("status not updated: %q", updated.Status)
	}

	// Any other field is off limits for staff.
	req, _ = authRequest("PUT", server.URL+fmt.Sprintf("/api/units/%d", unit.ID), token, map[string]string{
		"location": "Elsewhere",
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for staff editing location, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestEditVersionConflict(t *testing.T) {
	server, database := setupTestServer(t)
	createUser(t, database, "Root Admin", "admin@example.com", "password123", model.RoleAdmin, "")
	unit := seedUnit(t, database, "CS1", model.StatusStoreroom, model.LocationWarehouse)

	token := login(t, server, "admin@example.com", "password123")

	stale := unit.Version + 10
	req, _ := authRequest("PUT", server.URL+fmt.Sprintf("/api/units/%d", unit.ID), token, map[string]any{
		"serial":  "SN-NEW",
		"version": stale,
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for stale version, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestImportCSV(t *testing.T) {
	server, database := setupTestServer(t)
	createUser(t, database, "Root Admin", "admin@example.com", "password123", model.RoleAdmin, "")
	seedUnit(t, database, "CS1", model.StatusStoreroom, model.LocationWarehouse)

	token := login(t, server, "admin@example.com", "password123")

	csv := "cs,serial,phone,type,status,location,po\n" +
		"CS1,SN1,071,Camera,Storeroom,Warehouse,PO-2\n" +
		"CS9,SN9,079,Camera,Storeroom,Warehouse,PO-2\n"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "stock.csv")
	part.Write([]byte(csv))
	mw.Close()

	req, _ := http.NewRequest("POST", server.URL+"/api/units/import", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("import: expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Added   int `json:"added"`
		Skipped []struct {
			Code   string `json:"code"`
			Reason string `json:"reason"`
		} `json:"skipped"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	resp.Body.Close()

	if result.Added != 1 {
		t.Errorf("added = %d, want 1", result.Added)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Code != "CS1" {
		t.Errorf("skipped = %+v", result.Skipped)
	}
}

func TestImportForbiddenForFieldUser(t *testing.T) {
	server, database := setupTestServer(t)
	createUser(t, database, "Jane Doe", "jane@example.com", "password123", model.RoleUser, "Acme Security")
	token := login(t, server, "jane@example.com", "password123")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "stock.csv")
	part.Write([]byte("cs,serial,phone,type,status,location,po\n"))
	mw.Close()

	req, _ := http.NewRequest("POST", server.URL+"/api/units/import", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCommentVisibility(t *testing.T) {
	server, database := setupTestServer(t)
	createUser(t, database, "Root Admin", "admin@example.com", "password123", model.RoleAdmin, "")
	createUser(t, database, "Jane Doe", "jane@example.com", "password123", model.RoleUser, "Acme Security")
	unit := seedUnit(t, database, "CS1", model.StatusDispatched, "Jane Doe")

	adminToken := login(t, server, "admin@example.com", "password123")
	janeToken := login(t, server, "jane@example.com", "password123")

	commentsURL := server.URL + fmt.Sprintf("/api/units/%d/comments", unit.ID)

	req, _ := authRequest("POST", commentsURL, adminToken, map[string]string{
		"text":       "internal note",
		"visibility": model.CommentAdminOnly,
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("admin comment: expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = authRequest("POST", commentsURL, janeToken, map[string]string{
		"text": "unit installed",
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("shared comment: expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Field users cannot create internal notes.
	req, _ = authRequest("POST", commentsURL, janeToken, map[string]string{
		"text":       "sneaky",
		"visibility": model.CommentAdminOnly,
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for field user internal note, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Jane sees only the shared comment, the admin sees both.
	req, _ = authRequest("GET", commentsURL, janeToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	var janeComments []model.Comment
	json.NewDecoder(resp.Body).Decode(&janeComments)
	resp.Body.Close()
	if len(janeComments) != 1 || janeComments[0].Text != "unit installed" {
		t.Errorf("field user comments: %+v", janeComments)
	}

	req, _ = authRequest("GET", commentsURL, adminToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	var adminComments []model.Comment
	json.NewDecoder(resp.Body).Decode(&adminComments)
	resp.Body.Close()
	if len(adminComments) != 2 {
		t.Errorf("expected 2 comments for admin, got %d", len(adminComments))
	}
}

func TestRegistrationFlow(t *testing.T) {
	server, database := setupTestServer(t)
	createUser(t, database, "Root Admin", "admin@example.com", "password123", model.RoleAdmin, "")
	adminToken := login(t, server, "admin@example.com", "password123")

	body, _ := json.Marshal(map[string]string{
		"full_name": "New Tech",
		"email":     "new@example.com",
		"password":  "password123",
		"company":   "Acme Security",
	})
	resp, _ := http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("register: expected 202, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The account must not work before approval.
	loginBody, _ := json.Marshal(map[string]string{"email": "new@example.com", "password": "password123"})
	resp, _ = http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(loginBody))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 before approval, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ := authRequest("GET", server.URL+"/api/requests", adminToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	var requests []model.RegistrationRequest
	json.NewDecoder(resp.Body).Decode(&requests)
	resp.Body.Close()
	if len(requests) != 1 {
		t.Fatalf("expected 1 pending request, got %d", len(requests))
	}

	req, _ = authRequest("POST", server.URL+fmt.Sprintf("/api/requests/%d/approve", requests[0].ID),
		adminToken, map[string]string{"role": model.RoleUser})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("approve: expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Approved accounts log in with the password from registration.
	login(t, server, "new@example.com", "password123")
}

func TestApproveAssignsRole(t *testing.T) {
	server, database := setupTestServer(t)
	createUser(t, database, "Root Admin", "admin@example.com", "password123", model.RoleAdmin, "")
	adminToken := login(t, server, "admin@example.com", "password123")

	body, _ := json.Marshal(map[string]string{
		"full_name": "Carol Boss",
		"email":     "carol@example.com",
		"password":  "password123",
		"company":   "Acme Security",
	})
	resp, _ := http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	resp.Body.Close()

	requests, err := store.ListPendingRequests(context.Background(), database)
	if err != nil || len(requests) != 1 {
		t.Fatalf("pending requests: %v, %d", err, len(requests))
	}
	approveURL := server.URL + fmt.Sprintf("/api/requests/%d/approve", requests[0].ID)

	// A role outside the known set is rejected before anything is created.
	req, _ := authRequest("POST", approveURL, adminToken, map[string]string{"role": "janitor"})
	resp, _ = http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid role: expected 400, got %d", resp.StatusCode)
	}

	req, _ = authRequest("POST", approveURL, adminToken, map[string]string{"role": model.RoleCompanyAdmin})
	resp, _ = http.DefaultClient.Do(req)
	var created model.Actor
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("approve: expected 201, got %d", resp.StatusCode)
	}
	if created.Role != model.RoleCompanyAdmin {
		t.Errorf("approved user role = %q, want %q", created.Role, model.RoleCompanyAdmin)
	}

	user, err := store.GetUserByEmail(context.Background(), database, "carol@example.com")
	if err != nil || user == nil {
		t.Fatalf("looking up approved user: %v", err)
	}
	if user.Role != model.RoleCompanyAdmin {
		t.Errorf("stored role = %q, want %q", user.Role, model.RoleCompanyAdmin)
	}
}

func TestUserManagementRequiresCapability(t *testing.T) {
	server, database := setupTestServer(t)
	createUser(t, database, "Carol Boss", "carol@example.com", "password123", model.RoleCompanyAdmin, "Acme Security")
	token := login(t, server, "carol@example.com", "password123")

	req, _ := authRequest("GET", server.URL+"/api/users", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for company admin listing users, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestDeleteUserHoldingUnitsConflicts(t *testing.T) {
	server, database := setupTestServer(t)
	createUser(t, database, "Root Admin", "admin@example.com", "password123", model.RoleAdmin, "")
	tech := createUser(t, database, "John Tech", "john@example.com", "password123", model.RoleUser, "Acme Security")
	seedUnit(t, database, "CS1", model.StatusDispatched, "John Tech")

	token := login(t, server, "admin@example.com", "password123")

	req, _ := authRequest("DELETE", server.URL+fmt.Sprintf("/api/users/%d", tech.ID), token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for deleting holder, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRenameUserHoldingUnitsConflicts(t *testing.T) {
	server, database := setupTestServer(t)
	createUser(t, database, "Root Admin", "admin@example.com", "password123", model.RoleAdmin, "")
	tech := createUser(t, database, "John Tech", "john@example.com", "password123", model.RoleUser, "Acme Security")
	seedUnit(t, database, "CS1", model.StatusDispatched, "John Tech")

	token := login(t, server, "admin@example.com", "password123")

	rename := map[string]string{
		"full_name": "John Technician",
		"email":     "john@example.com",
		"role":      model.RoleUser,
		"company":   "Acme Security",
	}
	req, _ := authRequest("PUT", server.URL+fmt.Sprintf("/api/users/%d", tech.ID), token, rename)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for renaming holder, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Edits that keep the name are unaffected.
	sameName := map[string]string{
		"full_name": "John Tech",
		"email":     "john@example.com",
		"role":      model.RoleUser,
		"company":   "Acme Security",
		"phone":     "071999999",
	}
	req, _ = authRequest("PUT", server.URL+fmt.Sprintf("/api/users/%d", tech.ID), token, sameName)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for same-name edit, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
