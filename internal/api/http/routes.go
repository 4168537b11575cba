package httpapi

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/i474232898/activity-weather/internal/athlete"
	"github.com/i474232898/activity-weather/internal/auth"
	"github.com/i474232898/activity-weather/internal/observability"
	"github.com/i474232898/activity-weather/internal/webhook"
)

var validate = validator.New()

const (
	sessionAthleteID = "athlete_id"
	sessionName      = "athlete_name"
)

// Onboarding runs the OAuth authorization-code flow.
type Onboarding interface {
	AuthorizeURL(state string) string
	Authorize(ctx context.Context, code string) (auth.Profile, error)
}

// PreferenceStore reads and writes athlete preferences.
type PreferenceStore interface {
	GetPreferences(ctx context.Context, userID int64) (athlete.Preferences, error)
	PutPreferences(ctx context.Context, p athlete.Preferences) error
}

// EventHandler acts on verified webhook events.
type EventHandler interface {
	Handle(ctx context.Context, e webhook.Event) error
}

// SubscriptionChecker reports whether the push subscription exists.
type SubscriptionChecker interface {
	IsSubscribed(ctx context.Context) (bool, error)
}

// Deps are the collaborators behind the HTTP surface.
type Deps struct {
	Onboarding      Onboarding
	Preferences     PreferenceStore
	Verifier        *webhook.Verifier
	Events          EventHandler
	Subscriptions   SubscriptionChecker
	Sessions        *session.Store
	SignatureHeader string
	Logger          *zap.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.SignatureHeader == "" {
		d.SignatureHeader = "X-Hub-Signature"
	}
	h := &handlers{Deps: d}

	app.Get("/", h.index)
	app.Get("/authorization_successful", h.authorized)
	app.Post("/final/", h.savePreferences)
	app.Get("/webhook", h.webhookHandshake)
	app.Post("/webhook", h.webhookDelivery)
	app.Get("/admin/", h.admin)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "activity-weather",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

type handlers struct {
	Deps
}

func (h *handlers) index(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"authorize_url": h.Onboarding.AuthorizeURL(uuid.NewString()),
	})
}

func (h *handlers) authorized(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "authorization code is required")
	}

	profile, err := h.Onboarding.Authorize(c.UserContext(), code)
	if err != nil {
		h.Logger.Error("authorization failed", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "authorization failed")
	}

	sess, err := h.Sessions.Get(c)
	if err != nil {
		return err
	}
	sess.Set(sessionAthleteID, profile.ID)
	sess.Set(sessionName, profile.Name)
	if err := sess.Save(); err != nil {
		return err
	}

	prefs, err := h.Preferences.GetPreferences(c.UserContext(), profile.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"athlete_id":  profile.ID,
		"name":        profile.Name,
		"preferences": prefs,
	})
}

// preferencesForm is the submitted preferences page. Checkbox flags are
// true when present, whatever their value.
type preferencesForm struct {
	Language string `validate:"omitempty,oneof=en ru"`
	Units    string `validate:"omitempty,oneof=metric imperial"`
}

func (h *handlers) savePreferences(c *fiber.Ctx) error {
	sess, err := h.Sessions.Get(c)
	if err != nil {
		return err
	}
	athleteID, ok := sess.Get(sessionAthleteID).(int64)
	if !ok || athleteID == 0 {
		return fiber.NewError(fiber.StatusUnauthorized, "authorize first")
	}

	form := preferencesForm{Language: c.FormValue("lan"), Units: c.FormValue("units")}
	if err := validate.Struct(form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	prefs := athlete.Preferences{
		UserID:         athleteID,
		ShowIcon:       formHas(c, "icon"),
		ShowHumidity:   formHas(c, "humidity"),
		ShowWind:       formHas(c, "wind"),
		ShowAirQuality: formHas(c, "aqi"),
		Language:       athlete.ParseLanguage(form.Language),
		Units:          athlete.ParseUnits(form.Units),
	}
	if err := h.Preferences.PutPreferences(c.UserContext(), prefs); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"athlete_id":  athleteID,
		"name":        sess.Get(sessionName),
		"preferences": prefs,
	})
}

func formHas(c *fiber.Ctx, key string) bool {
	if c.Request().PostArgs().Has(key) {
		return true
	}
	form, err := c.MultipartForm()
	if err != nil {
		return false
	}
	_, ok := form.Value[key]
	return ok
}

func (h *handlers) webhookHandshake(c *fiber.Ctx) error {
	if h.Subscriptions != nil {
		subscribed, err := h.Subscriptions.IsSubscribed(c.UserContext())
		if err != nil {
			h.Logger.Warn("subscription check failed", zap.Error(err))
		} else if subscribed {
			return c.JSON(fiber.Map{"status": "You are already subscribed"})
		}
	}

	challenge, err := h.Verifier.Handshake(c.Query("hub.mode"), c.Query("hub.verify_token"), c.Query("hub.challenge"))
	if err != nil {
		h.reject(err)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": webhook.HandshakeMismatch})
	}
	h.Logger.Info("webhook subscription verified")
	return c.JSON(fiber.Map{"hub.challenge": challenge})
}

func (h *handlers) webhookDelivery(c *fiber.Ctx) error {
	if err := h.Verifier.VerifySignature(c.Get(h.SignatureHeader), c.Body()); err != nil {
		h.reject(err)
		return c.Status(fiber.StatusNotAcceptable).SendString("wrong signature")
	}

	event, err := webhook.ParseEvent(c.Body())
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := h.Events.Handle(c.UserContext(), event); err != nil {
		h.Logger.Error("webhook event failed", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "failed to process event")
	}
	return c.SendString("webhook ok")
}

func (h *handlers) reject(err error) {
	var failure *webhook.VerificationFailure
	if errors.As(err, &failure) {
		observability.RecordWebhookRejection(failure.Check)
	}
	h.Logger.Warn("webhook rejected", zap.Error(err))
}

func (h *handlers) admin(c *fiber.Ctx) error {
	subscribed, err := h.Subscriptions.IsSubscribed(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "subscription status unavailable")
	}
	return c.JSON(fiber.Map{"subscribed": subscribed})
}
