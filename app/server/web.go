package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jumpei00/levertrade/app/engine"
	"github.com/jumpei00/levertrade/app/models"
	"github.com/jumpei00/levertrade/app/models/strategy"
)

// JSONError is json error massage
type JSONError struct {
	Error string `json:"error"`
}

// RangeResponse is first and last date that can be backtested
type RangeResponse struct {
	First models.Date `json:"first"`
	Last  models.Date `json:"last"`
}

type backtestQuery struct {
	From        string `form:"from"`
	To          string `form:"to"`
	DisplayFrom string `form:"displayFrom"`
	Strategy    string `form:"strategy"`
}

// statusOf maps engine errors to http status code
func statusOf(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidRequest), errors.Is(err, models.ErrUnknownStrategy):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNoData):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func errorAPI(c *gin.Context, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		logrus.Warnf("backtest error: %v", err)
	}
	c.AbortWithStatusJSON(code, JSONError{Error: err.Error()})
}

// Handler serves backtest api with the service
type Handler struct {
	service         *engine.Service
	defaultStrategy string
}

// NewHandler is constructor of Handler, defaultStrategy is used when request has none
func NewHandler(service *engine.Service, defaultStrategy string) *Handler {
	return &Handler{service: service, defaultStrategy: defaultStrategy}
}

func (h *Handler) request(c *gin.Context) (engine.Request, bool) {
	var q backtestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		errorAPI(c, fmt.Errorf("%w: %v", models.ErrInvalidRequest, err))
		return engine.Request{}, false
	}
	if q.Strategy == "" {
		q.Strategy = h.defaultStrategy
	}
	req, err := engine.NewRequest(q.From, q.To, q.DisplayFrom, q.Strategy)
	if err != nil {
		errorAPI(c, err)
		return engine.Request{}, false
	}
	return req, true
}

// BacktestAPIHandler executes backtest, returns metrics, equity curve and trades,
// when path is "/api/backtest"
func (h *Handler) BacktestAPIHandler(c *gin.Context) {
	logrus.Infof("backtest request: url -> %s", c.Request.URL)
	req, ok := h.request(c)
	if !ok {
		return
	}
	res, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		errorAPI(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CompareAPIHandler executes backtest for several strategies on the same range,
// when path is "/api/compare", strategies are comma separated
func (h *Handler) CompareAPIHandler(c *gin.Context) {
	logrus.Infof("compare request: url -> %s", c.Request.URL)
	req, ok := h.request(c)
	if !ok {
		return
	}

	var variants []strategy.Variant
	for _, name := range strings.Split(c.Query("strategies"), ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		v, err := strategy.ParseVariant(name)
		if err != nil {
			errorAPI(c, err)
			return
		}
		variants = append(variants, v)
	}

	res, err := h.service.Compare(c.Request.Context(), req, variants)
	if err != nil {
		errorAPI(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// RangeAPIHandler returns range of available data, when path is "/api/range"
func (h *Handler) RangeAPIHandler(c *gin.Context) {
	first, last, err := h.service.DataRange(c.Request.Context())
	if err != nil {
		errorAPI(c, err)
		return
	}
	c.JSON(http.StatusOK, RangeResponse{First: first, Last: last})
}

// StrategiesAPIHandler returns names of strategies, when path is "/api/strategies"
func (h *Handler) StrategiesAPIHandler(c *gin.Context) {
	names := []string{}
	for _, v := range strategy.Variants() {
		names = append(names, v.String())
	}
	c.JSON(http.StatusOK, gin.H{"strategies": names, "default": h.defaultStrategy})
}

// NewRouter registers api routes
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	api := r.Group("/api")
	api.GET("/backtest", h.BacktestAPIHandler)
	api.GET("/compare", h.CompareAPIHandler)
	api.GET("/range", h.RangeAPIHandler)
	api.GET("/strategies", h.StrategiesAPIHandler)
	return r
}

// Run starts webserver
func Run(h *Handler, ip string, port int) error {
	logrus.Info("server start")
	return NewRouter(h).Run(fmt.Sprintf("%s:%d", ip, port))
}
