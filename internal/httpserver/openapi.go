package httpserver

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// SuggestQuery documents the query of GET /game/suggest.
type SuggestQuery struct {
	Q     string `query:"q" description:"Partial country name; fewer than 2 characters yields no suggestions."`
	Limit int    `query:"limit" description:"Maximum number of suggestions (default 5, at most 20)."`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "geoguess API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Guess the hidden country; every guess reports its distance to the target.")

	// GET /health
	getHealth, _ := r.NewOperationContext(http.MethodGet, "/health")
	getHealth.SetSummary("Health check")
	getHealth.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealth.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealth)

	// POST /game/new
	postNew, _ := r.NewOperationContext(http.MethodPost, "/game/new")
	postNew.SetSummary("Start a game")
	postNew.SetDescription("Creates a session, or restarts the one identified by the session token. Returns a new token.")
	postNew.AddReqStructure(NewGameRequest{})
	postNew.AddRespStructure(NewGameResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postNew.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postNew)

	// POST /game/guess
	postGuess, _ := r.NewOperationContext(http.MethodPost, "/game/guess")
	postGuess.SetSummary("Submit a guess")
	postGuess.SetDescription("Resolves the guess to a country and reports its distance to the target. Requires the session token.")
	postGuess.AddReqStructure(GuessRequest{})
	postGuess.AddRespStructure(GuessResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postGuess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postGuess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postGuess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postGuess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postGuess)

	// GET /game/state
	getState, _ := r.NewOperationContext(http.MethodGet, "/game/state")
	getState.SetSummary("Get game state")
	getState.SetDescription("Guesses so far; the target is included only once the round is won.")
	getState.AddRespStructure(StateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getState.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	getState.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getState)

	// GET /game/suggest
	getSuggest, _ := r.NewOperationContext(http.MethodGet, "/game/suggest")
	getSuggest.SetSummary("Suggest country names")
	getSuggest.AddReqStructure(SuggestQuery{})
	getSuggest.AddRespStructure(SuggestResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getSuggest.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getSuggest)

	// GET /game/forecast
	getForecast, _ := r.NewOperationContext(http.MethodGet, "/game/forecast")
	getForecast.SetSummary("Weather at the target's capital")
	getForecast.SetDescription("204 when the capital's coordinates are unknown; 409 when a new round started mid-request.")
	getForecast.AddRespStructure(ForecastResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getForecast.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	getForecast.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	getForecast.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadGateway))
	getForecast.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	getForecast.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusGatewayTimeout))
	_ = r.AddOperation(getForecast)

	// POST /daily/new
	postDaily, _ := r.NewOperationContext(http.MethodPost, "/daily/new")
	postDaily.SetSummary("Start today's daily game")
	postDaily.AddRespStructure(NewGameResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postDaily)

	// GET /daily/today
	getToday, _ := r.NewOperationContext(http.MethodGet, "/daily/today")
	getToday.SetSummary("Today's daily puzzle")
	getToday.AddRespStructure(TodayResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getToday)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
