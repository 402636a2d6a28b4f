package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/campusmind/support_server/internal/model"
	"github.com/campusmind/support_server/internal/render"
	"github.com/campusmind/support_server/internal/service"
	"github.com/labstack/echo/v4"
)

func (s *Server) getMe(c echo.Context) error {
	return c.JSON(http.StatusOK, meResponse{
		Profile:   actorFrom(c),
		Timezone:  s.deps.Calendar.Location.String(),
		ServerNow: s.deps.Calendar.Now().In(s.deps.Calendar.Location),
	})
}

func (s *Server) createTelegramLink(c echo.Context) error {
	code, err := s.deps.Profiles.CreateTelegramLink(c.Request().Context(), actorFrom(c).ID)
	if err != nil {
		return err
	}

	resp := telegramLinkResponse{Code: code.Code, ExpiresAt: code.ExpiresAt}
	if s.deps.BotUsername != "" {
		resp.Link = fmt.Sprintf("https://t.me/%s?start=%s", s.deps.BotUsername, code.Code)
	}
	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) unlinkTelegram(c echo.Context) error {
	if err := s.deps.Profiles.UnlinkTelegram(c.Request().Context(), actorFrom(c).ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listCounselors(c echo.Context) error {
	counselors, err := s.deps.Profiles.ListCounselors(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"counselors": counselors})
}

// dateRange читает from/to из query, по умолчанию весь горизонт от сегодня
func (s *Server) dateRange(c echo.Context) (time.Time, time.Time, error) {
	loc := s.deps.Calendar.Location
	from := s.deps.Calendar.Today()
	if raw := c.QueryParam("from"); raw != "" {
		d, err := model.ParseDate(raw, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("from: %w", model.ErrInvalidInput)
		}
		from = d
	}
	to := from.AddDate(0, 0, s.deps.Calendar.HorizonDays-1)
	if raw := c.QueryParam("to"); raw != "" {
		d, err := model.ParseDate(raw, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("to: %w", model.ErrInvalidInput)
		}
		to = d
	}
	return from, to, nil
}

func (s *Server) listSlots(c echo.Context) error {
	counselorID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	from, to, err := s.dateRange(c)
	if err != nil {
		return err
	}

	slots, err := s.deps.Slots.ListSlots(c.Request().Context(), counselorID, from, to)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, counselorSlotsResponse{
		CounselorID: counselorID,
		From:        from.Format(model.DateLayout),
		To:          to.Format(model.DateLayout),
		Slots:       slots,
	})
}

func (s *Server) availableCounts(c echo.Context) error {
	counselorID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	from, to, err := s.dateRange(c)
	if err != nil {
		return err
	}

	counts, err := s.deps.Slots.AvailableCounts(c.Request().Context(), counselorID, from, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"counts": counts})
}

// weekImage рисует неделю консультанта. Владелец календаря видит подписи
// анонимных записей, остальные только статусы слотов.
func (s *Server) weekImage(c echo.Context) error {
	ctx := c.Request().Context()
	counselorID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	day := s.deps.Calendar.Today()
	if raw := c.QueryParam("start"); raw != "" {
		day, err = model.ParseDate(raw, s.deps.Calendar.Location)
		if err != nil {
			return fmt.Errorf("start: %w", model.ErrInvalidInput)
		}
	}
	monday := render.MondayOf(day)

	slots, err := s.deps.Slots.ListSlots(ctx, counselorID, monday, monday.AddDate(0, 0, 6))
	if err != nil {
		return err
	}

	labels := map[int64]string{}
	if actor := actorFrom(c); actor.ID == counselorID {
		bookings, err := s.deps.Bookings.ListForCounselor(ctx, counselorID)
		if err != nil {
			return err
		}
		for _, b := range bookings {
			if b.Status == model.BookingStatusCancelled {
				continue
			}
			label := b.DisplayName()
			if label == "" {
				label = "#" + strconv.FormatInt(b.ID, 10)
			}
			labels[b.TimeSlotID] = label
		}
	}

	img, err := render.WeekImage(monday, s.deps.Calendar.Now().In(s.deps.Calendar.Location), slots, labels)
	if err != nil {
		return fmt.Errorf("render week: %w", err)
	}
	return c.Blob(http.StatusOK, "image/png", img)
}

func (s *Server) getAvailability(c echo.Context) error {
	rules, err := s.deps.Availability.GetRules(c.Request().Context(), actorFrom(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"rules": rules})
}

func (s *Server) saveAvailability(c echo.Context) error {
	var req saveAvailabilityRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := s.deps.Availability.SaveRules(c.Request().Context(), actorFrom(c).ID, req.toRules())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) generateSlots(c echo.Context) error {
	var req generateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	date, err := model.ParseDate(req.Date, s.deps.Calendar.Location)
	if err != nil {
		return fmt.Errorf("date: %w", model.ErrInvalidInput)
	}
	slots, err := s.deps.Availability.GenerateForDate(c.Request().Context(), actorFrom(c).ID, date)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"date": req.Date, "slots": slots})
}

func (s *Server) blockSlot(c echo.Context) error {
	slotID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	slot, err := s.deps.Slots.Block(c.Request().Context(), actorFrom(c).ID, slotID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, slot)
}

func (s *Server) unblockSlot(c echo.Context) error {
	slotID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	slot, err := s.deps.Slots.Unblock(c.Request().Context(), actorFrom(c).ID, slotID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, slot)
}

// createBooking принимает заявку. Без токена или с anonymous=true заявка
// анонимная, иначе привязывается к профилю студента.
func (s *Server) createBooking(c echo.Context) error {
	var req createBookingRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	actor := actorFrom(c)
	var requester model.Requester
	switch {
	case actor == nil || req.Anonymous:
		requester = model.AnonymousStudent{DisplayID: req.DisplayID}
	case actor.Role == model.RoleStudent:
		requester = model.IdentifiedStudent{StudentID: actor.ID}
	default:
		return fmt.Errorf("only students can book sessions: %w", model.ErrForbidden)
	}

	booking, err := s.deps.Bookings.Create(c.Request().Context(), service.CreateBookingInput{
		Requester:         requester,
		CounselorID:       req.CounselorID,
		TimeSlotID:        req.TimeSlotID,
		Reason:            req.Reason,
		CommunicationMode: model.CommunicationMode(req.CommunicationMode),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, booking)
}

func (s *Server) listBookings(c echo.Context) error {
	ctx := c.Request().Context()
	actor := actorFrom(c)

	var (
		bookings []*model.Booking
		err      error
	)
	if actor.IsCounselor() {
		if c.QueryParam("status") == string(model.BookingStatusPending) {
			bookings, err = s.deps.Bookings.PendingForCounselor(ctx, actor.ID)
		} else {
			bookings, err = s.deps.Bookings.ListForCounselor(ctx, actor.ID)
		}
	} else {
		bookings, err = s.deps.Bookings.ListForStudent(ctx, actor.ID)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

func (s *Server) bookingSummary(c echo.Context) error {
	summary, err := s.deps.Bookings.Summary(c.Request().Context(), actorFrom(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

func (s *Server) getBooking(c echo.Context) error {
	bookingID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	booking, err := s.deps.Bookings.Get(c.Request().Context(), actorFrom(c), bookingID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, booking)
}

func (s *Server) confirmBooking(c echo.Context) error {
	return s.decide(c, s.deps.Bookings.Confirm)
}

func (s *Server) cancelBooking(c echo.Context) error {
	return s.decide(c, s.deps.Bookings.Cancel)
}

func (s *Server) completeBooking(c echo.Context) error {
	return s.decide(c, s.deps.Bookings.Complete)
}

type decision func(ctx context.Context, counselorID, bookingID int64) (*model.Booking, error)

func (s *Server) decide(c echo.Context, fn decision) error {
	bookingID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	booking, err := fn(c.Request().Context(), actorFrom(c).ID, bookingID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, booking)
}

func (s *Server) submitScreening(c echo.Context) error {
	var req screeningRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := s.deps.Screenings.Submit(c.Request().Context(), actorFrom(c).ID, model.ScreeningType(req.Type), req.Responses)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

func (s *Server) screeningHistory(c echo.Context) error {
	results, err := s.deps.Screenings.History(c.Request().Context(), actorFrom(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"screenings": results})
}

func (s *Server) listPosts(c echo.Context) error {
	posts, err := s.deps.Forum.ListPosts(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": posts})
}

func (s *Server) createPost(c echo.Context) error {
	var req postRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := s.deps.Forum.CreatePost(c.Request().Context(), service.PostInput{
		AuthorID: actorFrom(c).ID,
		Category: req.Category,
		Title:    req.Title,
		Body:     req.Body,
	})
	if err != nil {
		return err
	}
	return c.JSON(postStatus(result), result)
}

func (s *Server) replyPost(c echo.Context) error {
	parentID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req replyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := s.deps.Forum.Reply(c.Request().Context(), parentID, service.PostInput{
		AuthorID: actorFrom(c).ID,
		Body:     req.Body,
	})
	if err != nil {
		return err
	}
	return c.JSON(postStatus(result), result)
}

// postStatus: 201 если пост сохранён, 200 если вместо публикации отдан кризисный ответ
func postStatus(result *service.PostResult) int {
	if result.Post == nil {
		return http.StatusOK
	}
	return http.StatusCreated
}

func (s *Server) chat(c echo.Context) error {
	var req chatRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	reply, err := s.deps.Chat.Reply(c.Request().Context(), req.History, req.Message, req.Language)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reply)
}
