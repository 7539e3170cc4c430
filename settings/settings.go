// Package settings owns storefront-wide settings. Today that is the
// delivery fee at settings/deliveryFee.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"caintamart/docstore"
	"caintamart/models"
	"caintamart/state"
	"caintamart/utils"

	"github.com/julienschmidt/httprouter"
)

const (
	DefaultDeliveryFee = 50.0
	feePath            = "settings/deliveryFee"
	feeCacheKey        = "settings:deliveryFee"
	feeCacheTTL        = 5 * time.Minute
)

// Cache is the read-through cache in front of the fee document.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type DeliveryFee struct {
	Amount    float64   `json:"amount" bson:"amount"`
	UpdatedBy string    `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

type Service struct {
	store docstore.Store
	cache Cache
	app   *state.App
	def   float64
	now   func() time.Time
}

// New builds the service. cache may be nil.
func New(store docstore.Store, cache Cache, app *state.App, defaultFee float64) *Service {
	if defaultFee < 0 || math.IsNaN(defaultFee) {
		defaultFee = DefaultDeliveryFee
	}
	return &Service{store: store, cache: cache, app: app, def: defaultFee, now: time.Now}
}

func (s *Service) read(ctx context.Context) (float64, error) {
	var doc DeliveryFee
	err := s.store.Read(ctx, feePath, &doc)
	if errors.Is(err, docstore.ErrNotFound) {
		return s.def, nil
	}
	if err != nil {
		return 0, fmt.Errorf("settings: read delivery fee: %w", err)
	}
	return doc.Amount, nil
}

// DeliveryFee returns the current fee, served from cache when possible.
func (s *Service) DeliveryFee(ctx context.Context) (float64, error) {
	if s.cache != nil {
		v, ok, err := s.cache.Get(ctx, feeCacheKey)
		if err != nil {
			log.Printf("[settings] cache get: %v", err)
		} else if ok {
			if fee, err := strconv.ParseFloat(v, 64); err == nil {
				return fee, nil
			}
		}
	}
	fee, err := s.read(ctx)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, feeCacheKey, strconv.FormatFloat(fee, 'f', 2, 64), feeCacheTTL); err != nil {
			log.Printf("[settings] cache set: %v", err)
		}
	}
	return fee, nil
}

// SetDeliveryFee is admin-only.
func (s *Service) SetDeliveryFee(ctx context.Context, actor models.Actor, amount float64) error {
	if !actor.Admin {
		return models.ErrForbidden
	}
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return models.Invalid("amount", "must be zero or more")
	}
	doc := DeliveryFee{Amount: models.Round2(amount), UpdatedBy: actor.Label(), UpdatedAt: s.now()}
	if err := s.store.Write(ctx, feePath, doc); err != nil {
		return fmt.Errorf("settings: write delivery fee: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Del(ctx, feeCacheKey); err != nil {
			log.Printf("[settings] cache del: %v", err)
		}
	}
	return nil
}

// Source reloads the fee into state on every settings push. It skips the
// cache so a change made elsewhere is seen at once.
func (s *Service) Source() state.Loader {
	return func(ctx context.Context) error {
		fee, err := s.read(ctx)
		if err != nil {
			return err
		}
		s.app.SetDeliveryFee(fee)
		return nil
	}
}

func (s *Service) GetDeliveryFee(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fee, err := s.DeliveryFee(r.Context())
	if err != nil {
		utils.RespondWithErr(w, err, nil)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"amount": fee})
}

func (s *Service) PutDeliveryFee(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Amount *float64 `json:"amount"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithErr(w, err, nil)
		return
	}
	if body.Amount == nil {
		utils.RespondWithErr(w, models.Invalid("amount", "is required"), nil)
		return
	}
	if err := s.SetDeliveryFee(r.Context(), utils.ActorFromRequest(r), *body.Amount); err != nil {
		utils.RespondWithErr(w, err, nil)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"amount": models.Round2(*body.Amount)})
}
