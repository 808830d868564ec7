package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func performRequest(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/test", handler)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)
	return w
}

func TestData(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Data(c, gin.H{"widgets": 3})
	})

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var body map[string]int
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["widgets"] != 3 {
		t.Errorf("Expected widgets 3, got %d", body["widgets"])
	}
}

func TestJSON_CustomStatus(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		JSON(c, http.StatusCreated, gin.H{"id": "w1"})
	})

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}
}

func TestError_ExplicitMessage(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, http.StatusBadRequest, "widget id required")
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}

	var body ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Code != http.StatusBadRequest {
		t.Errorf("Expected code 400, got %d", body.Code)
	}
	if body.Message != "widget id required" {
		t.Errorf("Expected explicit message, got %q", body.Message)
	}
}

func TestError_DefaultMessage(t *testing.T) {
	tests := []struct {
		code    int
		message string
	}{
		{http.StatusUnauthorized, "Unauthorized"},
		{http.StatusNotFound, "Not Found"},
		{http.StatusTooManyRequests, "Too Many Requests"},
		{http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			w := performRequest(func(c *gin.Context) {
				Error(c, tt.code, "")
			})

			var body ErrorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("Failed to decode body: %v", err)
			}
			if body.Code != tt.code {
				t.Errorf("Expected code %d, got %d", tt.code, body.Code)
			}
			if body.Message != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, body.Message)
			}
		})
	}
}

func TestAbortError_StopsChain(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	handlerRan := false
	router.Use(func(c *gin.Context) {
		AbortError(c, http.StatusUnauthorized, "")
	})
	router.GET("/test", func(c *gin.Context) {
		handlerRan = true
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
	if handlerRan {
		t.Error("Expected handler to be skipped after abort")
	}
}
