package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type idPathParams struct {
	ID string `path:"id"`
}

type levelNumberPathParams struct {
	LevelNumber int `path:"levelNumber"`
}

type playerIDPathParams struct {
	PlayerID string `path:"playerId"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "TrailHunt API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the TrailHunt scavenger-hunt game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /signup
	postSignup, _ := r.NewOperationContext(http.MethodPost, "/signup")
	postSignup.SetSummary("Sign up")
	postSignup.SetDescription("Creates a user account. Phone numbers must be unique.")
	postSignup.AddReqStructure(SignupRequest{})
	postSignup.AddRespStructure(SignupResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postSignup.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postSignup)

	// POST /login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/login")
	postLogin.SetSummary("Log in")
	postLogin.SetDescription("Authenticate with phone number and password. Returns a short-lived bearer token.")
	postLogin.AddReqStructure(LoginRequest{})
	postLogin.AddRespStructure(LoginResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postLogin)

	// POST /create
	postCreate, _ := r.NewOperationContext(http.MethodPost, "/create")
	postCreate.SetSummary("Create user (admin)")
	postCreate.SetDescription("Admin creates a user account. Requires Bearer token with admin role.")
	postCreate.AddReqStructure(SignupRequest{})
	postCreate.AddRespStructure(UserResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postCreate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postCreate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(postCreate)

	// GET /retrieve
	getUsers, _ := r.NewOperationContext(http.MethodGet, "/retrieve")
	getUsers.SetSummary("List users (admin)")
	getUsers.AddRespStructure(UsersResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getUsers.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	getUsers.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(getUsers)

	// GET /retrieve/{id}
	getUser, _ := r.NewOperationContext(http.MethodGet, "/retrieve/{id}")
	getUser.SetSummary("Get user (admin)")
	getUser.AddReqStructure(idPathParams{})
	getUser.AddRespStructure(UserResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getUser.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getUser)

	// PUT /update/{id}
	putUser, _ := r.NewOperationContext(http.MethodPut, "/update/{id}")
	putUser.SetSummary("Update user (admin)")
	putUser.SetDescription("Updates user fields; a new password is re-hashed before storage.")
	putUser.AddReqStructure(idPathParams{})
	putUser.AddReqStructure(UpdateUserRequest{})
	putUser.AddRespStructure(UserResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	putUser.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(putUser)

	// DELETE /delete/{id}
	delUser, _ := r.NewOperationContext(http.MethodDelete, "/delete/{id}")
	delUser.SetSummary("Delete user (admin)")
	delUser.AddReqStructure(idPathParams{})
	delUser.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	delUser.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(delUser)

	// POST /users/trailCreate
	postTrail, _ := r.NewOperationContext(http.MethodPost, "/users/trailCreate")
	postTrail.SetSummary("Add place to level (admin)")
	postTrail.SetDescription("Finds or creates the level and appends a place. Levels hold at most 4 places.")
	postTrail.AddReqStructure(TrailCreateRequest{})
	postTrail.AddRespStructure(LevelResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postTrail.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postTrail)

	// GET /users/trail
	getTrail, _ := r.NewOperationContext(http.MethodGet, "/users/trail")
	getTrail.SetSummary("List levels (admin)")
	getTrail.AddRespStructure(LevelsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getTrail)

	// GET /users/trail/{levelNumber}
	getLevel, _ := r.NewOperationContext(http.MethodGet, "/users/trail/{levelNumber}")
	getLevel.SetSummary("Get level (admin)")
	getLevel.AddReqStructure(levelNumberPathParams{})
	getLevel.AddRespStructure(LevelResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getLevel.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getLevel)

	// PUT /users/trail/{levelNumber}
	putLevel, _ := r.NewOperationContext(http.MethodPut, "/users/trail/{levelNumber}")
	putLevel.SetSummary("Replace place (admin)")
	putLevel.SetDescription("Replaces the place at a given index within the level.")
	putLevel.AddReqStructure(levelNumberPathParams{})
	putLevel.AddReqStructure(UpdateLevelRequest{})
	putLevel.AddRespStructure(LevelResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	putLevel.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	putLevel.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(putLevel)

	// DELETE /users/trail/{levelNumber}
	delLevel, _ := r.NewOperationContext(http.MethodDelete, "/users/trail/{levelNumber}")
	delLevel.SetSummary("Delete level (admin)")
	delLevel.AddReqStructure(levelNumberPathParams{})
	delLevel.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	delLevel.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(delLevel)

	// POST /player/generate-qr
	postQR, _ := r.NewOperationContext(http.MethodPost, "/player/generate-qr")
	postQR.SetSummary("Generate QR code (admin)")
	postQR.SetDescription("Encodes {levelNumber, place} as JSON into a QR PNG returned as a base64 data URL.")
	postQR.AddReqStructure(QRPayload{})
	postQR.AddRespStructure(GenerateQRResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postQR.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postQR.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postQR)

	// POST /player/start-game/{playerId}
	postStart, _ := r.NewOperationContext(http.MethodPost, "/player/start-game/{playerId}")
	postStart.SetSummary("Start or resume game")
	postStart.SetDescription("Assigns a random path on first call; later calls resume without reshuffling. Requires Bearer token.")
	postStart.AddReqStructure(playerIDPathParams{})
	postStart.AddRespStructure(StartGameResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postStart)

	// POST /player/verify-qr/{playerId}
	postVerify, _ := r.NewOperationContext(http.MethodPost, "/player/verify-qr/{playerId}")
	postVerify.SetSummary("Verify scanned QR")
	postVerify.SetDescription("Advances the player's path cursor when the scan matches the current target. Requires Bearer token.")
	postVerify.AddReqStructure(playerIDPathParams{})
	postVerify.AddReqStructure(VerifyQRRequest{})
	postVerify.AddRespStructure(VerifyQRResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postVerify.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postVerify.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postVerify.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postVerify)

	// GET /admin/player
	getPlayers, _ := r.NewOperationContext(http.MethodGet, "/admin/player")
	getPlayers.SetSummary("List player progress (admin)")
	getPlayers.AddRespStructure(PlayersProgressResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getPlayers.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(getPlayers)

	// GET /admin/player/{playerId}
	getPlayer, _ := r.NewOperationContext(http.MethodGet, "/admin/player/{playerId}")
	getPlayer.SetSummary("Get player progress (admin)")
	getPlayer.AddReqStructure(playerIDPathParams{})
	getPlayer.AddRespStructure(PlayerProgressResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getPlayer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getPlayer)

	// GET /player/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/player/events")
	getEvents.SetSummary("SSE game event stream")
	getEvents.SetDescription("Server-Sent Events stream of the caller's game events. Pass the token as a query parameter.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

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
