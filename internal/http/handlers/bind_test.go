package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/finledger/internal/domain/transaction"
	"github.com/geocoder89/finledger/internal/domain/user"
	"github.com/geocoder89/finledger/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type bindErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string                `json:"json"`
			Field  string                `json:"field"`
			Fields []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func bindRouter[T any]() *gin.Engine {
	r := gin.New()
	r.POST("/bind", func(ctx *gin.Context) {
		var req T
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})
	return r
}

func postBind(t *testing.T, r *gin.Engine, body string) (*httptest.ResponseRecorder, bindErrorResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/bind", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp bindErrorResponse
	if w.Code != http.StatusCreated {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
		}
	}
	return w, resp
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	r := bindRouter[transaction.CreateParams]()

	w, resp := postBind(t, r, `{"name":"  ","type":"GIFT","amount":"10.555"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}
	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}

	wantRules := map[string]string{
		"name":   "notblank",
		"date":   "required",
		"type":   "oneof",
		"amount": "money",
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Error.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Error.Details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}
}

func TestBindJSON_AcceptsValidTransaction(t *testing.T) {
	r := bindRouter[transaction.CreateParams]()

	for _, body := range []string{
		`{"name":"Salary","date":"2024-01-31T00:00:00Z","type":"EARNING","amount":"5000"}`,
		`{"name":"Coffee","date":"2024-01-31T08:30:00Z","type":"EXPENSE","amount":3.75}`,
	} {
		w, _ := postBind(t, r, body)
		if w.Code != http.StatusCreated {
			t.Fatalf("body %s: got status %d, body=%s", body, w.Code, w.Body.String())
		}
	}
}

func TestBindJSON_RejectsNonPositiveAmounts(t *testing.T) {
	r := bindRouter[transaction.CreateParams]()

	for _, amount := range []string{`"0"`, `"-5"`, `0.001`} {
		body := `{"name":"x","date":"2024-01-31T00:00:00Z","type":"EXPENSE","amount":` + amount + `}`

		w, resp := postBind(t, r, body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("amount %s: got status %d", amount, w.Code)
		}
		if len(resp.Error.Details.Fields) != 1 || resp.Error.Details.Fields[0].Rule != "money" {
			t.Fatalf("amount %s: unexpected fields %+v", amount, resp.Error.Details.Fields)
		}
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	r := bindRouter[user.UpdateParams]()

	w, resp := postBind(t, r, `{"first_name":42}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}
	if resp.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Error.Details.JSON)
	}
	if resp.Error.Details.Field != "first_name" {
		t.Fatalf("expected detail field to be first_name, got %q", resp.Error.Details.Field)
	}
	if len(resp.Error.Details.Fields) == 0 {
		t.Fatalf("expected at least one field error in details.fields")
	}

	fieldErr := resp.Error.Details.Fields[0]
	if fieldErr.Rule != "type" {
		t.Fatalf("expected fields[0].rule=type, got %q", fieldErr.Rule)
	}
	if fieldErr.Message == "" {
		t.Fatalf("expected non-empty fields[0].message")
	}
}

func TestBindJSON_BodyErrors(t *testing.T) {
	r := bindRouter[user.UpdateParams]()

	tests := []struct {
		name     string
		body     string
		wantJSON string
	}{
		{"empty", ``, "empty_body"},
		{"syntax", `{"email":`, "invalid_json_syntax"},
		{"unknown field", `{"nickname":"ada"}`, "unknown_field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := postBind(t, r, tt.body)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
			}
			if resp.Error.Details.JSON != tt.wantJSON {
				t.Fatalf("got details.json %q, want %q", resp.Error.Details.JSON, tt.wantJSON)
			}
		})
	}
}

func TestBindJSON_InvalidDate(t *testing.T) {
	r := bindRouter[transaction.Patch]()

	w, resp := postBind(t, r, `{"date":"31/01/2024"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d", w.Code)
	}
	if resp.Error.Details.JSON != "invalid_date" {
		t.Fatalf("got details.json %q, want invalid_date", resp.Error.Details.JSON)
	}
}
