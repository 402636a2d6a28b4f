package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/campusmind/support_server/internal/model"
	"github.com/campusmind/support_server/internal/service"
	"github.com/campusmind/support_server/internal/service/servicetest"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	counselorID = int64(1)
	studentID   = int64(10)
	adminID     = int64(20)
)

var testSecret = []byte("test-secret")

// 2 июня 2025 года, понедельник
var testNow = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

type testServer struct {
	db       *servicetest.DB
	profiles *service.ProfileService
	e        *echo.Echo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := servicetest.NewDB()
	db.Now = func() time.Time { return testNow }
	db.AddProfile(&model.Profile{ID: counselorID, Role: model.RoleCounselor, DisplayName: "Dr. Rao"})
	db.AddProfile(&model.Profile{ID: studentID, Role: model.RoleStudent, DisplayName: "Asha"})
	db.AddProfile(&model.Profile{ID: adminID, Role: model.RoleAdmin, DisplayName: "Wellness Office"})

	calendar := service.NewCalendar(time.UTC, service.DefaultHorizonDays)
	calendar.Now = func() time.Time { return testNow }
	logger := zap.NewNop()

	profiles := service.NewProfileService(db.Profiles(), logger)
	deps := Deps{
		Profiles:     profiles,
		Availability: service.NewAvailabilityService(db, db.Profiles(), db.Rules(), db.Slots(), calendar, logger),
		Slots:        service.NewSlotService(db.Slots(), calendar, logger),
		Bookings:     service.NewBookingService(db, db.Slots(), db.Bookings(), nil, calendar, logger),
		Screenings:   service.NewScreeningService(db.Screenings(), logger),
		Forum:        service.NewForumService(db.Forum(), logger),
		Chat:         service.NewChatService(nil, logger),
		Resources:    service.NewResourceService(db.Resources(), logger),
		Calendar:     calendar,
		BotUsername:  "campus_support_bot",
	}

	return &testServer{db: db, profiles: profiles, e: NewRouter(deps, testSecret, logger)}
}

func signToken(t *testing.T, secret []byte, subject int64, role model.Role) string {
	t.Helper()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subject, 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) addSlot(day, start, end string) *model.TimeSlot {
	d, _ := model.ParseDate(day, time.UTC)
	return ts.db.AddSlot(&model.TimeSlot{
		CounselorID: counselorID,
		Date:        d,
		StartTime:   model.MustTimeOfDay(start),
		EndTime:     model.MustTimeOfDay(end),
		Status:      model.SlotStatusAvailable,
	})
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	if code == "" {
		return
	}
	if got := decode(t, rec)["code"]; got != code {
		t.Fatalf("code = %v, want %s", got, code)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAuthentication(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"wrong secret", signToken(t, []byte("other"), studentID, model.RoleStudent), http.StatusUnauthorized},
		{"unknown profile", signToken(t, testSecret, 999, model.RoleStudent), http.StatusUnauthorized},
		{"garbage", "not-a-jwt", http.StatusUnauthorized},
		{"valid", signToken(t, testSecret, studentID, model.RoleStudent), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodGet, "/api/me", tt.token, nil)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestRoleFromProfileNotToken(t *testing.T) {
	ts := newTestServer(t)
	// Студент с ролью консультанта в токене всё равно не может менять расписание
	token := signToken(t, testSecret, studentID, model.RoleCounselor)

	rec := ts.do(t, http.MethodPut, "/api/availability", token, saveAvailabilityRequest{})
	expectCode(t, rec, http.StatusForbidden, "forbidden")
}

func TestSaveAvailability(t *testing.T) {
	ts := newTestServer(t)
	token := signToken(t, testSecret, counselorID, model.RoleCounselor)

	t.Run("creates slots", func(t *testing.T) {
		rec := ts.do(t, http.MethodPut, "/api/availability", token, echo.Map{
			"rules": []echo.Map{{"day_of_week": 2, "start_time": "09:00", "end_time": "11:00"}},
		})
		expectCode(t, rec, http.StatusOK, "")
		if created := decode(t, rec)["slots_created"].(float64); created <= 0 {
			t.Fatalf("slots_created = %v, want > 0", created)
		}
		if ts.db.SlotCount() == 0 {
			t.Fatal("no slots stored")
		}
	})

	t.Run("overlapping rules", func(t *testing.T) {
		rec := ts.do(t, http.MethodPut, "/api/availability", token, echo.Map{
			"rules": []echo.Map{
				{"day_of_week": 1, "start_time": "09:00", "end_time": "11:00"},
				{"day_of_week": 1, "start_time": "10:00", "end_time": "12:00"},
			},
		})
		expectCode(t, rec, http.StatusUnprocessableEntity, "overlapping_rules")
	})

	t.Run("bad time format", func(t *testing.T) {
		rec := ts.do(t, http.MethodPut, "/api/availability", token, echo.Map{
			"rules": []echo.Map{{"day_of_week": 1, "start_time": "9am", "end_time": "11:00"}},
		})
		expectCode(t, rec, http.StatusBadRequest, "invalid_input")
	})

	t.Run("day out of range", func(t *testing.T) {
		rec := ts.do(t, http.MethodPut, "/api/availability", token, echo.Map{
			"rules": []echo.Map{{"day_of_week": 7, "start_time": "09:00", "end_time": "11:00"}},
		})
		expectCode(t, rec, http.StatusBadRequest, "invalid_input")
	})
}

func TestBookingFlow(t *testing.T) {
	ts := newTestServer(t)
	studentToken := signToken(t, testSecret, studentID, model.RoleStudent)
	counselorToken := signToken(t, testSecret, counselorID, model.RoleCounselor)
	slot := ts.addSlot("2025-06-03", "09:00", "10:00")

	body := echo.Map{
		"counselor_id":       counselorID,
		"time_slot_id":       slot.ID,
		"communication_mode": "video",
		"reason":             "exam stress",
	}

	rec := ts.do(t, http.MethodPost, "/api/bookings", studentToken, body)
	expectCode(t, rec, http.StatusCreated, "")
	booking := decode(t, rec)
	if booking["status"] != "pending" {
		t.Fatalf("status = %v, want pending", booking["status"])
	}
	bookingID := int64(booking["id"].(float64))

	rec = ts.do(t, http.MethodPost, "/api/bookings", studentToken, body)
	expectCode(t, rec, http.StatusConflict, "slot_unavailable")

	rec = ts.do(t, http.MethodPost, "/api/slots/"+strconv.FormatInt(slot.ID, 10)+"/block", counselorToken, nil)
	expectCode(t, rec, http.StatusConflict, "slot_booked")

	confirmPath := "/api/bookings/" + strconv.FormatInt(bookingID, 10) + "/confirm"

	rec = ts.do(t, http.MethodPost, confirmPath, studentToken, nil)
	expectCode(t, rec, http.StatusForbidden, "forbidden")

	rec = ts.do(t, http.MethodPost, confirmPath, counselorToken, nil)
	expectCode(t, rec, http.StatusOK, "")
	if got := decode(t, rec)["status"]; got != "confirmed" {
		t.Fatalf("status = %v, want confirmed", got)
	}

	rec = ts.do(t, http.MethodPost, confirmPath, counselorToken, nil)
	expectCode(t, rec, http.StatusConflict, "stale_state")

	rec = ts.do(t, http.MethodGet, "/api/bookings/summary", counselorToken, nil)
	expectCode(t, rec, http.StatusOK, "")
	if got := decode(t, rec)["confirmed"]; got != float64(1) {
		t.Fatalf("confirmed = %v, want 1", got)
	}

	rec = ts.do(t, http.MethodGet, "/api/bookings/"+strconv.FormatInt(bookingID, 10), studentToken, nil)
	expectCode(t, rec, http.StatusOK, "")
}

func TestAnonymousBooking(t *testing.T) {
	ts := newTestServer(t)
	slot := ts.addSlot("2025-06-04", "14:00", "15:00")

	rec := ts.do(t, http.MethodPost, "/api/bookings", "", echo.Map{
		"counselor_id":       counselorID,
		"time_slot_id":       slot.ID,
		"communication_mode": "chat",
	})
	expectCode(t, rec, http.StatusCreated, "")

	requester, ok := decode(t, rec)["requester"].(map[string]any)
	if !ok {
		t.Fatalf("requester missing: %s", rec.Body.String())
	}
	displayID, _ := requester["display_id"].(string)
	if !strings.HasPrefix(displayID, "Anonymous_") {
		t.Fatalf("display_id = %q, want Anonymous_ prefix", displayID)
	}
	if _, ok := requester["student_id"]; ok {
		t.Fatal("anonymous booking exposes student_id")
	}
}

func TestCreateBookingValidation(t *testing.T) {
	ts := newTestServer(t)
	token := signToken(t, testSecret, studentID, model.RoleStudent)
	slot := ts.addSlot("2025-06-03", "09:00", "10:00")

	tests := []struct {
		name   string
		body   echo.Map
		status int
		code   string
	}{
		{
			name:   "unknown mode",
			body:   echo.Map{"counselor_id": counselorID, "time_slot_id": slot.ID, "communication_mode": "fax"},
			status: http.StatusBadRequest,
			code:   "invalid_input",
		},
		{
			name:   "missing slot",
			body:   echo.Map{"counselor_id": counselorID, "communication_mode": "video"},
			status: http.StatusBadRequest,
			code:   "invalid_input",
		},
		{
			name:   "unknown slot",
			body:   echo.Map{"counselor_id": counselorID, "time_slot_id": 9999, "communication_mode": "video"},
			status: http.StatusNotFound,
			code:   "not_found",
		},
		{
			name:   "reason too long",
			body:   echo.Map{"counselor_id": counselorID, "time_slot_id": slot.ID, "communication_mode": "video", "reason": strings.Repeat("a", 1001)},
			status: http.StatusBadRequest,
			code:   "invalid_input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/bookings", token, tt.body)
			expectCode(t, rec, tt.status, tt.code)
		})
	}
}

func TestCounselorCannotBook(t *testing.T) {
	ts := newTestServer(t)
	token := signToken(t, testSecret, counselorID, model.RoleCounselor)
	slot := ts.addSlot("2025-06-03", "09:00", "10:00")

	rec := ts.do(t, http.MethodPost, "/api/bookings", token, echo.Map{
		"counselor_id":       counselorID,
		"time_slot_id":       slot.ID,
		"communication_mode": "video",
	})
	expectCode(t, rec, http.StatusForbidden, "forbidden")
}

func TestSlotQueries(t *testing.T) {
	ts := newTestServer(t)
	token := signToken(t, testSecret, studentID, model.RoleStudent)
	ts.addSlot("2025-06-03", "09:00", "10:00")
	ts.addSlot("2025-06-03", "10:00", "11:00")
	ts.addSlot("2025-06-05", "09:00", "10:00")

	rec := ts.do(t, http.MethodGet, "/api/counselors/1/slots?from=2025-06-03&to=2025-06-04", token, nil)
	expectCode(t, rec, http.StatusOK, "")
	if slots := decode(t, rec)["slots"].([]any); len(slots) != 2 {
		t.Fatalf("got %d slots, want 2", len(slots))
	}

	rec = ts.do(t, http.MethodGet, "/api/counselors/1/slots/available-counts", token, nil)
	expectCode(t, rec, http.StatusOK, "")
	if counts := decode(t, rec)["counts"].([]any); len(counts) != 2 {
		t.Fatalf("got %d dates, want 2", len(counts))
	}

	rec = ts.do(t, http.MethodGet, "/api/counselors/1/slots?from=june", token, nil)
	expectCode(t, rec, http.StatusBadRequest, "invalid_input")

	rec = ts.do(t, http.MethodGet, "/api/counselors/abc/slots", token, nil)
	expectCode(t, rec, http.StatusBadRequest, "invalid_input")
}

func TestWeekImage(t *testing.T) {
	ts := newTestServer(t)
	token := signToken(t, testSecret, counselorID, model.RoleCounselor)
	ts.addSlot("2025-06-03", "09:00", "10:00")

	rec := ts.do(t, http.MethodGet, "/api/counselors/1/week.png?start=2025-06-04", token, nil)
	expectCode(t, rec, http.StatusOK, "")
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatal("body is not a PNG")
	}
}

func TestScreeningEndpoint(t *testing.T) {
	ts := newTestServer(t)
	token := signToken(t, testSecret, studentID, model.RoleStudent)

	rec := ts.do(t, http.MethodPost, "/api/screenings", token, echo.Map{
		"screening_type": "gad7",
		"responses":      []int{3, 3, 3, 3, 3, 3, 3},
	})
	expectCode(t, rec, http.StatusCreated, "")
	if got := decode(t, rec)["risk_level"]; got != "high" {
		t.Fatalf("risk_level = %v, want high", got)
	}

	rec = ts.do(t, http.MethodPost, "/api/screenings", token, echo.Map{
		"screening_type": "gad7",
		"responses":      []int{4, 0, 0, 0, 0, 0, 0},
	})
	expectCode(t, rec, http.StatusBadRequest, "invalid_input")

	rec = ts.do(t, http.MethodGet, "/api/screenings", token, nil)
	expectCode(t, rec, http.StatusOK, "")
	if history := decode(t, rec)["screenings"].([]any); len(history) != 1 {
		t.Fatalf("history = %d, want 1", len(history))
	}
}

func TestForumEndpoints(t *testing.T) {
	ts := newTestServer(t)
	token := signToken(t, testSecret, studentID, model.RoleStudent)

	rec := ts.do(t, http.MethodPost, "/api/forum/posts", token, echo.Map{
		"category": "academic",
		"title":    "Midterms",
		"body":     "How do you all plan revision for midterms?",
	})
	expectCode(t, rec, http.StatusCreated, "")
	post := decode(t, rec)["post"].(map[string]any)
	postID := int64(post["id"].(float64))

	rec = ts.do(t, http.MethodPost, "/api/forum/posts/"+strconv.FormatInt(postID, 10)+"/replies", token, echo.Map{
		"body": "Short sessions with breaks work for me.",
	})
	expectCode(t, rec, http.StatusCreated, "")

	rec = ts.do(t, http.MethodGet, "/api/forum/posts?category=academic", token, nil)
	expectCode(t, rec, http.StatusOK, "")
	posts := decode(t, rec)["posts"].([]any)
	if len(posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(posts))
	}
	if replies := posts[0].(map[string]any)["replies"].([]any); len(replies) != 1 {
		t.Fatalf("replies = %d, want 1", len(replies))
	}

	rec = ts.do(t, http.MethodGet, "/api/forum/posts?category=gossip", token, nil)
	expectCode(t, rec, http.StatusBadRequest, "invalid_input")
}

func TestChatFallback(t *testing.T) {
	ts := newTestServer(t)
	token := signToken(t, testSecret, studentID, model.RoleStudent)

	rec := ts.do(t, http.MethodPost, "/api/chat", token, echo.Map{"message": "I feel stressed about exams"})
	expectCode(t, rec, http.StatusOK, "")
	out := decode(t, rec)
	if out["fallback"] != true || out["reply"] != service.FallbackReply {
		t.Fatalf("unexpected reply: %v", out)
	}

	rec = ts.do(t, http.MethodPost, "/api/chat", token, echo.Map{"message": ""})
	expectCode(t, rec, http.StatusBadRequest, "invalid_input")
}

func TestTelegramLink(t *testing.T) {
	ts := newTestServer(t)
	token := signToken(t, testSecret, counselorID, model.RoleCounselor)
	ctx := context.Background()

	rec := ts.do(t, http.MethodPost, "/api/me/telegram/link", token, nil)
	expectCode(t, rec, http.StatusCreated, "")
	out := decode(t, rec)
	code, _ := out["code"].(string)
	if code == "" || out["link"] != "https://t.me/campus_support_bot?start="+code {
		t.Fatalf("unexpected link: %v", out)
	}

	// Бот погашает код из /start и привязывает чат
	if _, err := ts.profiles.RedeemTelegramLink(ctx, code, 4242); err != nil {
		t.Fatalf("RedeemTelegramLink: %v", err)
	}

	rec = ts.do(t, http.MethodGet, "/api/me", token, nil)
	expectCode(t, rec, http.StatusOK, "")
	profile := decode(t, rec)["profile"].(map[string]any)
	if profile["telegram_chat_id"] != float64(4242) {
		t.Fatalf("telegram_chat_id = %v", profile["telegram_chat_id"])
	}

	// Тот же чат нельзя привязать ко второму профилю
	studentToken := signToken(t, testSecret, studentID, model.RoleStudent)
	rec = ts.do(t, http.MethodPost, "/api/me/telegram/link", studentToken, nil)
	expectCode(t, rec, http.StatusCreated, "")
	studentCode := decode(t, rec)["code"].(string)
	if _, err := ts.profiles.RedeemTelegramLink(ctx, studentCode, 4242); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("duplicate chat err = %v", err)
	}

	// Прямая установка chat_id больше не поддерживается
	rec = ts.do(t, http.MethodPut, "/api/me/telegram", token, echo.Map{"chat_id": 5555})
	if rec.Code < http.StatusBadRequest {
		t.Fatalf("PUT /api/me/telegram status = %d, want an error", rec.Code)
	}

	rec = ts.do(t, http.MethodDelete, "/api/me/telegram", token, nil)
	expectCode(t, rec, http.StatusNoContent, "")
	rec = ts.do(t, http.MethodGet, "/api/me", token, nil)
	if _, ok := decode(t, rec)["profile"].(map[string]any)["telegram_chat_id"]; ok {
		t.Fatal("telegram_chat_id should be cleared")
	}
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		token  string
		status int
		code   string
	}{
		{"student", signToken(t, testSecret, studentID, model.RoleStudent), http.StatusNotFound, "not_found"},
		{"counselor", signToken(t, testSecret, counselorID, model.RoleCounselor), http.StatusNotFound, "not_found"},
		{"anonymous", "", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodGet, "/api/does-not-exist", tt.token, nil)
			expectCode(t, rec, tt.status, tt.code)
		})
	}
}

func TestResourceEndpoints(t *testing.T) {
	ts := newTestServer(t)
	adminToken := signToken(t, testSecret, adminID, model.RoleAdmin)
	studentToken := signToken(t, testSecret, studentID, model.RoleStudent)
	counselorToken := signToken(t, testSecret, counselorID, model.RoleCounselor)

	rec := ts.do(t, http.MethodPost, "/api/resources/categories", studentToken, echo.Map{"name": "Mindfulness"})
	expectCode(t, rec, http.StatusForbidden, "forbidden")

	rec = ts.do(t, http.MethodPost, "/api/resources/categories", adminToken, echo.Map{"name": "Mindfulness", "color": "#10b981"})
	expectCode(t, rec, http.StatusCreated, "")
	categoryID := decode(t, rec)["id"].(float64)

	video := echo.Map{
		"title":        "Box breathing",
		"content_type": "video",
		"category_id":  categoryID,
		"language":     "english",
		"content_url":  "https://videos.example.org/box",
	}

	rec = ts.do(t, http.MethodPost, "/api/resources", counselorToken, video)
	expectCode(t, rec, http.StatusForbidden, "forbidden")

	rec = ts.do(t, http.MethodPost, "/api/resources", adminToken, echo.Map{"title": "Bad", "content_type": "podcast", "category_id": categoryID, "language": "english"})
	expectCode(t, rec, http.StatusBadRequest, "invalid_input")

	rec = ts.do(t, http.MethodPost, "/api/resources", adminToken, video)
	expectCode(t, rec, http.StatusCreated, "")
	resourcePath := "/api/resources/" + strconv.FormatInt(int64(decode(t, rec)["id"].(float64)), 10)

	rec = ts.do(t, http.MethodPost, "/api/resources", adminToken, echo.Map{
		"title":        "Sleep hygiene",
		"content_type": "article",
		"category_id":  categoryID,
		"language":     "hindi",
		"content_text": "Keep a regular bedtime.",
	})
	expectCode(t, rec, http.StatusCreated, "")

	listed := func(t *testing.T, token, query string) []any {
		t.Helper()
		rec := ts.do(t, http.MethodGet, "/api/resources"+query, token, nil)
		expectCode(t, rec, http.StatusOK, "")
		return decode(t, rec)["resources"].([]any)
	}

	if got := listed(t, studentToken, ""); len(got) != 2 {
		t.Fatalf("listed %d resources, want 2", len(got))
	}
	if got := listed(t, studentToken, "?language=hindi&content_type=article"); len(got) != 1 {
		t.Fatalf("filtered %d resources, want 1", len(got))
	}

	rec = ts.do(t, http.MethodPut, resourcePath+"/interaction", studentToken, echo.Map{"is_bookmarked": true, "rating": 4, "progress_percentage": 50})
	expectCode(t, rec, http.StatusOK, "")
	rec = ts.do(t, http.MethodPut, resourcePath+"/interaction", studentToken, echo.Map{"rating": 9})
	expectCode(t, rec, http.StatusBadRequest, "invalid_input")

	rec = ts.do(t, http.MethodGet, resourcePath, studentToken, nil)
	expectCode(t, rec, http.StatusOK, "")
	got := decode(t, rec)
	if got["average_rating"] != float64(4) || got["total_ratings"] != float64(1) {
		t.Fatalf("ratings = %v / %v", got["average_rating"], got["total_ratings"])
	}
	if got["user_interaction"].(map[string]any)["is_bookmarked"] != true {
		t.Fatalf("user_interaction = %v", got["user_interaction"])
	}
	if bookmarks := listed(t, studentToken, "?bookmarked=true"); len(bookmarks) != 1 {
		t.Fatalf("bookmarks = %d, want 1", len(bookmarks))
	}

	rec = ts.do(t, http.MethodPatch, resourcePath+"/active", adminToken, echo.Map{"is_active": false})
	expectCode(t, rec, http.StatusNoContent, "")
	rec = ts.do(t, http.MethodGet, resourcePath, studentToken, nil)
	expectCode(t, rec, http.StatusNotFound, "not_found")
	rec = ts.do(t, http.MethodGet, "/api/resources?include_inactive=true", studentToken, nil)
	expectCode(t, rec, http.StatusForbidden, "forbidden")
	if all := listed(t, adminToken, "?include_inactive=true"); len(all) != 2 {
		t.Fatalf("admin listed %d resources, want 2", len(all))
	}

	rec = ts.do(t, http.MethodDelete, resourcePath, studentToken, nil)
	expectCode(t, rec, http.StatusForbidden, "forbidden")
	rec = ts.do(t, http.MethodDelete, resourcePath, adminToken, nil)
	expectCode(t, rec, http.StatusNoContent, "")
	rec = ts.do(t, http.MethodGet, resourcePath, adminToken, nil)
	expectCode(t, rec, http.StatusNotFound, "not_found")

	rec = ts.do(t, http.MethodGet, "/api/resources/categories", studentToken, nil)
	expectCode(t, rec, http.StatusOK, "")
	if categories := decode(t, rec)["categories"].([]any); len(categories) != 1 {
		t.Fatalf("categories = %d, want 1", len(categories))
	}
}
