package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/haldre/rota/internal/ctxhelper"
	"github.com/haldre/rota/internal/log"
	"github.com/haldre/rota/internal/models"
	"github.com/haldre/rota/internal/ratelimit"
	"github.com/haldre/rota/internal/schedule"
)

const (
	apiBasePath = "/api"
	// serviceBasePath is the mount point for trusted service clients authenticating
	// with an API key instead of a user session
	serviceBasePath = "/api/v1"

	// HeaderCorrelationID carries the request correlation ID in both directions
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderAPIKey carries the API key of a trusted service client
	HeaderAPIKey = "X-API-Key"
)

// Defines an error that defines the HTTP status that should be returned
type httpStatuser interface {
	Status() int
}

// Defines an error that returns a machine-readable error code
type errorCoder interface {
	ErrorCode() string
}

// Defines an error that contains a data field with additional information
type dataBearer interface {
	Data() interface{}
}

// Defines a response that selects its own HTTP status code
type statusCoder interface {
	StatusCode() int
}

type errorResponse struct {
	Message string `json:"message"`
	// The error code
	Code          string      `json:"code"`
	Details       interface{} `json:"details,omitempty"`
	CorrelationID string      `json:"correlationId,omitempty"`
}

// MakeHTTPHandler creates the main HTTP handler for the Rota service
func MakeHTTPHandler(
	es EventService,
	ss SongService,
	bs BlockoutService,
	us UserService,
	sServ SessionService,
	hs HealthService,
	cs ConfigService,
	limiter *ratelimit.Limiter,
	logger *logrus.Entry,
) http.Handler {
	r := mux.NewRouter()

	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(encodeError),
		httptransport.ServerBefore(makeContextInjector(logger)),
		httptransport.ServerBefore(makeSessionDecoder(sServ)),
	}

	// User-facing API authenticating via session tokens
	api := r.PathPrefix(apiBasePath).Subrouter()
	registerResourceRoutes(api, es, ss, bs, us, options)
	registerSessionRoutes(api, sServ, options)

	// Service API authenticating via API keys
	v1 := r.PathPrefix(serviceBasePath).Subrouter()
	v1.Use(makeAPIKeyMiddleware(cs))
	registerResourceRoutes(v1, es, ss, bs, us, options)

	// Health endpoints need no authentication. The full health report pings all
	// dependencies; the readiness answer only confirms that HTTP can be reached.
	hEp := MakeHealthEndpoints(hs)
	api.Methods(http.MethodGet).Path("/health").Handler(httptransport.NewServer(
		hEp.Check,
		decodeNilRequest,
		encodeJSONResponse,
		options...,
	))
	api.Methods(http.MethodGet).Path("/health/readiness").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		status := HealthError
		code := http.StatusServiceUnavailable
		if hs.Alive(r.Context()) {
			status = HealthOK
			code = http.StatusOK
		}
		w.WriteHeader(code)
		data := map[string]string{"status": status}
		json.NewEncoder(w).Encode(data)
	})

	var handler http.Handler = r
	handler = MakeRateLimitMiddleware(limiter, cs, logger)(handler)
	handler = MakeCorrelationMiddleware()(handler)
	return handler
}

// registerResourceRoutes mounts the event, song, blockout and user routes on the
// given subrouter. Both the session API and the service API share these routes.
func registerResourceRoutes(
	r *mux.Router,
	es EventService,
	ss SongService,
	bs BlockoutService,
	us UserService,
	options []httptransport.ServerOption,
) {
	// -- Event service --------------------------------
	{
		evEp := MakeEventEndpoints(es)

		// List
		r.Methods(http.MethodGet).Path("/events").Handler(httptransport.NewServer(
			evEp.List,
			decodeEventListRequest,
			encodeJSONResponse,
			options...,
		))

		// Get
		r.Methods(http.MethodGet).Path("/events/{id:[0-9]+}").Handler(httptransport.NewServer(
			evEp.Get,
			decodeIDFromPath,
			encodeJSONResponse,
			options...,
		))

		// Create
		r.Methods(http.MethodPost).Path("/events").Handler(httptransport.NewServer(
			evEp.Create,
			decodeEvent,
			encodeJSONResponse,
			options...,
		))

		// Update
		r.Methods(http.MethodPut).Path("/events/{id:[0-9]+}").Handler(httptransport.NewServer(
			evEp.Update,
			decodeEventUpdate,
			encodeJSONResponse,
			options...,
		))

		// Delete
		r.Methods(http.MethodDelete).Path("/events/{id:[0-9]+}").Handler(httptransport.NewServer(
			evEp.Delete,
			decodeIDFromPath,
			encodeJSONResponse,
			options...,
		))

		// Setlist
		r.Methods(http.MethodGet).Path("/events/{id:[0-9]+}/songs").Handler(httptransport.NewServer(
			evEp.Setlist,
			decodeIDFromPath,
			encodeJSONResponse,
			options...,
		))

		// AddToSetlist
		r.Methods(http.MethodPost).Path("/events/{id:[0-9]+}/songs").Handler(httptransport.NewServer(
			evEp.AddToSetlist,
			decodeSetlistEntry,
			encodeJSONResponse,
			options...,
		))

		// RemoveFromSetlist
		r.Methods(http.MethodDelete).Path("/events/{id:[0-9]+}/songs/{songId:[0-9]+}").Handler(httptransport.NewServer(
			evEp.RemoveFromSetlist,
			decodeSetlistRemove,
			encodeJSONResponse,
			options...,
		))

		// Availability
		r.Methods(http.MethodGet).Path("/events/{id:[0-9]+}/availability").Handler(httptransport.NewServer(
			evEp.Availability,
			decodeIDFromPath,
			encodeJSONResponse,
			options...,
		))
	}

	// -- Song service ---------------------------------
	{
		sEp := MakeSongEndpoints(ss)

		// List
		r.Methods(http.MethodGet).Path("/songs").Handler(httptransport.NewServer(
			sEp.List,
			decodeSongListRequest,
			encodeJSONResponse,
			options...,
		))

		// Get
		r.Methods(http.MethodGet).Path("/songs/{id:[0-9]+}").Handler(httptransport.NewServer(
			sEp.Get,
			decodeIDFromPath,
			encodeJSONResponse,
			options...,
		))

		// Create
		r.Methods(http.MethodPost).Path("/songs").Handler(httptransport.NewServer(
			sEp.Create,
			decodeSong,
			encodeJSONResponse,
			options...,
		))

		// Update
		r.Methods(http.MethodPut).Path("/songs/{id:[0-9]+}").Handler(httptransport.NewServer(
			sEp.Update,
			decodeSongUpdate,
			encodeJSONResponse,
			options...,
		))

		// Delete
		r.Methods(http.MethodDelete).Path("/songs/{id:[0-9]+}").Handler(httptransport.NewServer(
			sEp.Delete,
			decodeIDFromPath,
			encodeJSONResponse,
			options...,
		))
	}

	// -- Blockout service -----------------------------
	{
		bEp := MakeBlockoutEndpoints(bs)

		// List
		r.Methods(http.MethodGet).Path("/blockouts").Handler(httptransport.NewServer(
			bEp.List,
			decodeBlockoutListRequest,
			encodeJSONResponse,
			options...,
		))

		// Get
		r.Methods(http.MethodGet).Path("/blockouts/{id:[0-9]+}").Handler(httptransport.NewServer(
			bEp.Get,
			decodeIDFromPath,
			encodeJSONResponse,
			options...,
		))

		// Create
		r.Methods(http.MethodPost).Path("/blockouts").Handler(httptransport.NewServer(
			bEp.Create,
			decodeBlockout,
			encodeJSONResponse,
			options...,
		))

		// Update
		r.Methods(http.MethodPut).Path("/blockouts/{id:[0-9]+}").Handler(httptransport.NewServer(
			bEp.Update,
			decodeBlockoutUpdate,
			encodeJSONResponse,
			options...,
		))

		// Delete
		r.Methods(http.MethodDelete).Path("/blockouts/{id:[0-9]+}").Handler(httptransport.NewServer(
			bEp.Delete,
			decodeIDFromPath,
			encodeJSONResponse,
			options...,
		))
	}

	// -- User service ---------------------------------
	{
		uEp := MakeUserEndpoints(us)

		// List
		r.Methods(http.MethodGet).Path("/users").Handler(httptransport.NewServer(
			uEp.List,
			decodeUserListRequest,
			encodeJSONResponse,
			options...,
		))

		// Get
		r.Methods(http.MethodGet).Path("/users/{id:[0-9]+}").Handler(httptransport.NewServer(
			uEp.Get,
			decodeIDFromPath,
			encodeJSONResponse,
			options...,
		))

		// Create
		r.Methods(http.MethodPost).Path("/users").Handler(httptransport.NewServer(
			uEp.Create,
			decodeUserWrite,
			encodeJSONResponse,
			options...,
		))

		// Update
		r.Methods(http.MethodPut).Path("/users/{id:[0-9]+}").Handler(httptransport.NewServer(
			uEp.Update,
			decodeUserUpdate,
			encodeJSONResponse,
			options...,
		))

		// Delete
		r.Methods(http.MethodDelete).Path("/users/{id:[0-9]+}").Handler(httptransport.NewServer(
			uEp.Delete,
			decodeIDFromPath,
			encodeJSONResponse,
			options...,
		))
	}
}

// registerSessionRoutes mounts the login, logout and whoami routes. Only the
// session API carries these - service clients authenticate per request.
func registerSessionRoutes(r *mux.Router, sServ SessionService, options []httptransport.ServerOption) {
	sEp := MakeSessionEndpoints(sServ)

	// Login
	r.Methods(http.MethodPost).Path("/login").Handler(httptransport.NewServer(
		sEp.Login,
		decodeLoginRequest,
		encodeJSONResponse,
		options...,
	))

	// Logout
	r.Methods(http.MethodPost).Path("/logout").Handler(httptransport.NewServer(
		sEp.Logout,
		decodeNilRequest,
		encodeJSONResponse,
		options...,
	))

	// WhoAmI
	r.Methods(http.MethodGet).Path("/whoami").Handler(httptransport.NewServer(
		sEp.WhoAmI,
		decodeNilRequest,
		encodeJSONResponse,
		options...,
	))
}

// -- Request decoding -------------------------------------------------------------------------------------------------

// decodeNilRequest just does nothing with the request. It is used for endpoints that don't need anything to be passed
func decodeNilRequest(_ context.Context, r *http.Request) (request interface{}, err error) {
	return nil, nil
}

// errIllegalJSON builds the error returned for an unparseable JSON body
func errIllegalJSON(err error) error {
	return MakeError(
		http.StatusBadRequest,
		ErrCodeIllegalJSON,
		fmt.Sprintf("Failed to decode JSON body: %v", err),
	)
}

// decodeDateParam parses an optional date query parameter. Both plain dates and
// RFC3339 timestamps are accepted.
func decodeDateParam(value, name string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := schedule.ParseDate(value, time.Local)
	if err != nil {
		return nil, MakeError(
			http.StatusBadRequest,
			ErrCodeIllegalDate,
			fmt.Sprintf("Value for '%s' is not a valid date", name),
		)
	}
	return &t, nil
}

// decodePageParams reads the pagination information from the request's query variables
func decodePageParams(r *http.Request) PageParams {
	val := r.URL.Query()
	return ParsePageParams(val.Get("page"), val.Get("limit"))
}

// decodeEventListRequest decodes the parameters of an event listing from the query variables
func decodeEventListRequest(_ context.Context, r *http.Request) (request interface{}, err error) {
	val := r.URL.Query()
	req := EventListRequest{PageParams: decodePageParams(r)}
	if req.From, err = decodeDateParam(val.Get("startDate"), "startDate"); err != nil {
		return nil, err
	}
	if req.To, err = decodeDateParam(val.Get("endDate"), "endDate"); err != nil {
		return nil, err
	}
	return req, nil
}

// decodeSongListRequest decodes the parameters of a song search from the query variables
func decodeSongListRequest(_ context.Context, r *http.Request) (request interface{}, err error) {
	val := r.URL.Query()
	return SongListRequest{
		PageParams: decodePageParams(r),
		Search:     val.Get("search"),
		Key:        val.Get("key"),
	}, nil
}

// decodeBlockoutListRequest decodes the parameters of a blockout listing from the query variables
func decodeBlockoutListRequest(_ context.Context, r *http.Request) (request interface{}, err error) {
	val := r.URL.Query()
	req := BlockoutListRequest{
		PageParams: decodePageParams(r),
		All:        val.Get("all") == "true",
	}
	if req.From, err = decodeDateParam(val.Get("startDate"), "startDate"); err != nil {
		return nil, err
	}
	if req.To, err = decodeDateParam(val.Get("endDate"), "endDate"); err != nil {
		return nil, err
	}
	return req, nil
}

// decodeUserListRequest decodes the parameters of a user search from the query variables
func decodeUserListRequest(_ context.Context, r *http.Request) (request interface{}, err error) {
	val := r.URL.Query()
	return UserListRequest{
		PageParams: decodePageParams(r),
		Search:     val.Get("search"),
	}, nil
}

// eventBody is the wire format of an event write request. The date is carried as a
// string so clients can send either a plain date or a full timestamp.
type eventBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// decodeEvent tries to load an event object from the provided HTTP request's body
func decodeEvent(_ context.Context, r *http.Request) (interface{}, error) {
	var body eventBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, errIllegalJSON(err)
	}
	ev := models.Event{
		Title:       body.Title,
		Description: body.Description,
	}
	if body.Date != "" {
		date, err := schedule.ParseDate(body.Date, time.Local)
		if err != nil {
			return nil, MakeError(
				http.StatusBadRequest,
				ErrCodeIllegalDate,
				"Value for 'date' is not a valid date",
			)
		}
		ev.Date = date
	}
	return ev, nil
}

// Decodes an event from an update request where the ID of the event is in the path
func decodeEventUpdate(ctx context.Context, r *http.Request) (interface{}, error) {
	ev, err := decodeEvent(ctx, r)
	if err != nil {
		return nil, err
	}
	id, err := decodeIDFromPath(ctx, r)
	if err != nil {
		return nil, err
	}
	ret := ev.(models.Event)
	ret.ID = id.(uint)
	return ret, nil
}

// decodeSong tries to load a song object from the provided HTTP request's body
func decodeSong(_ context.Context, r *http.Request) (interface{}, error) {
	var song models.Song
	if err := json.NewDecoder(r.Body).Decode(&song); err != nil {
		return nil, errIllegalJSON(err)
	}
	return song, nil
}

// Decodes a song from an update request where the ID of the song is in the path
func decodeSongUpdate(ctx context.Context, r *http.Request) (interface{}, error) {
	song, err := decodeSong(ctx, r)
	if err != nil {
		return nil, err
	}
	id, err := decodeIDFromPath(ctx, r)
	if err != nil {
		return nil, err
	}
	ret := song.(models.Song)
	ret.ID = id.(uint)
	return ret, nil
}

// blockoutBody is the wire format of a blockout write request
type blockoutBody struct {
	UserID    uint   `json:"userId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Reason    string `json:"reason"`
}

// decodeBlockout tries to load a blockout object from the provided HTTP request's body
func decodeBlockout(_ context.Context, r *http.Request) (interface{}, error) {
	var body blockoutBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, errIllegalJSON(err)
	}
	b := models.Blockout{
		UserID: body.UserID,
		Reason: body.Reason,
	}
	var err error
	if body.StartDate != "" {
		if b.StartDate, err = schedule.ParseDate(body.StartDate, time.Local); err != nil {
			return nil, MakeError(
				http.StatusBadRequest,
				ErrCodeIllegalDate,
				"Value for 'startDate' is not a valid date",
			)
		}
	}
	if body.EndDate != "" {
		if b.EndDate, err = schedule.ParseDate(body.EndDate, time.Local); err != nil {
			return nil, MakeError(
				http.StatusBadRequest,
				ErrCodeIllegalDate,
				"Value for 'endDate' is not a valid date",
			)
		}
	}
	return b, nil
}

// Decodes a blockout from an update request where the ID of the window is in the path
func decodeBlockoutUpdate(ctx context.Context, r *http.Request) (interface{}, error) {
	b, err := decodeBlockout(ctx, r)
	if err != nil {
		return nil, err
	}
	id, err := decodeIDFromPath(ctx, r)
	if err != nil {
		return nil, err
	}
	ret := b.(models.Blockout)
	ret.ID = id.(uint)
	return ret, nil
}

// decodeUserWrite reads a user write request from the request's JSON body
func decodeUserWrite(_ context.Context, r *http.Request) (interface{}, error) {
	var req UserWriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errIllegalJSON(err)
	}
	return req, nil
}

// Decodes a user write request where the ID of the user is in the path
func decodeUserUpdate(ctx context.Context, r *http.Request) (interface{}, error) {
	req, err := decodeUserWrite(ctx, r)
	if err != nil {
		return nil, err
	}
	id, err := decodeIDFromPath(ctx, r)
	if err != nil {
		return nil, err
	}
	return userUpdateRequest{
		ID:   id.(uint),
		Data: req.(UserWriteRequest),
	}, nil
}

// decodeLoginRequest decodes a login request from the JSON body
func decodeLoginRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errIllegalJSON(err)
	}
	return req, nil
}

// decodeSetlistEntry reads a set-list addition from the body and the event ID from the path
func decodeSetlistEntry(ctx context.Context, r *http.Request) (interface{}, error) {
	var entry SetlistAddRequest
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		return nil, errIllegalJSON(err)
	}
	id, err := getUintFromPath("id", r)
	if err != nil {
		return nil, err
	}
	return setlistEntryRequest{EventID: id, Entry: entry}, nil
}

// decodeSetlistRemove reads the event and song IDs of a set-list entry from the path
func decodeSetlistRemove(_ context.Context, r *http.Request) (interface{}, error) {
	eventID, err := getUintFromPath("id", r)
	if err != nil {
		return nil, err
	}
	songID, err := getUintFromPath("songId", r)
	if err != nil {
		return nil, err
	}
	return setlistRemoveRequest{EventID: eventID, SongID: songID}, nil
}

// getUintFromPath is a helper function that gets a uint from the given path variable
func getUintFromPath(varname string, r *http.Request) (uint, error) {
	errmsg := fmt.Sprintf("Value for '%s' is no valid unsigned integer", varname)
	vars := mux.Vars(r)
	str, ok := vars[varname]
	if !ok {
		return 0, MakeError(http.StatusBadRequest, ErrCodeInvalidUint, errmsg)
	}
	id, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return 0, MakeError(http.StatusBadRequest, ErrCodeInvalidUint, errmsg)
	}
	return uint(id), nil
}

// Decodes an ID from the "id" path variable provided by GoRilla
func decodeIDFromPath(ctx context.Context, r *http.Request) (interface{}, error) {
	return getUintFromPath("id", r)
}

// -- Response encoding ------------------------------------------------------------------------------------------------

// Encodes a typical JSON response. Responses implementing statusCoder select their
// own HTTP status; a 204 is written without a body.
func encodeJSONResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if sc, ok := response.(statusCoder); ok {
		code := sc.StatusCode()
		w.WriteHeader(code)
		if code == http.StatusNoContent {
			return nil
		}
	}
	return json.NewEncoder(w).Encode(response)
}

// Builds an error response based on the incoming error
func encodeError(ctx context.Context, err error, w http.ResponseWriter) {
	if err == nil {
		panic("encodeError with nil error")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if st, ok := err.(httpStatuser); ok {
		w.WriteHeader(st.Status())
	} else {
		w.WriteHeader(http.StatusInternalServerError)
	}
	ret := errorResponse{
		Message:       err.Error(),
		Code:          ErrCodeUnknown,
		CorrelationID: ctxhelper.CorrelationID(ctx),
	}
	if cd, ok := err.(errorCoder); ok {
		ret.Code = cd.ErrorCode()
	}
	if db, ok := err.(dataBearer); ok {
		if data := db.Data(); data != nil {
			if err, ok := data.(error); ok {
				ret.Details = err.Error()
			} else {
				ret.Details = data
			}
		}
	}
	json.NewEncoder(w).Encode(&ret)
}

// -- Context injection ------------------------------------------------------------------------------------------------

// makeSessionDecoder returns a function that is used in every HTTP call to decode the session used, if a session
// token is sent by the client. The token is taken from a bearer Authorization header, with the plain "token"
// header as fallback.
func makeSessionDecoder(s SessionService) httptransport.RequestFunc {
	return func(ctx context.Context, r *http.Request) context.Context {
		token := sessionToken(r)
		logger := ctxhelper.Logger(ctx)
		if token != "" {
			// Try to load the session's data
			sess, user, err := s.GetContents(ctx, token, true)
			if err != nil {
				logger.WithError(err).WithField(log.FldSession, token).Error("Failed to retrieve session information")
				return ctx
			}
			if sess == nil || user == nil {
				// Nobody logged in
				return ctx
			}
			ctx = context.WithValue(ctx, ctxhelper.KeySession, *sess)
			ctx = context.WithValue(ctx, ctxhelper.KeyUser, *user)
			ctx = context.WithValue(ctx, ctxhelper.KeyLogger, logger.WithFields(logrus.Fields{
				log.FldSession: sess.ID,
				log.FldUser:    user.ID,
			}))
		}
		return ctx
	}
}

// sessionToken extracts the session token from the request headers
func sessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if strings.HasPrefix(auth, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		}
	}
	return strings.TrimSpace(r.Header.Get("token"))
}

func makeContextInjector(logger *logrus.Entry) httptransport.RequestFunc {
	return func(ctx context.Context, r *http.Request) context.Context {
		l := logger
		if id := ctxhelper.CorrelationID(ctx); id != "" {
			l = l.WithField(log.FldCorrelation, id)
		}
		return context.WithValue(ctx, ctxhelper.KeyLogger, l)
	}
}

// -- HTTP middleware --------------------------------------------------------------------------------------------------

// writeError writes an error response outside of the go-kit request cycle
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	encodeError(ctx, err, w)
}

// MakeCorrelationMiddleware returns a middleware that assigns every request a
// correlation ID. An ID sent by the client is kept; the ID is echoed back in the
// response headers either way.
func MakeCorrelationMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(HeaderCorrelationID))
			if id == "" {
				id = uuid.New().String()
			}
			w.Header().Set(HeaderCorrelationID, id)
			ctx := context.WithValue(r.Context(), ctxhelper.KeyCorrelationID, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MakeRateLimitMiddleware returns a middleware enforcing the configured request
// rate limits per client IP. Login attempts and account creation have their own,
// stricter windows.
func MakeRateLimitMiddleware(
	limiter *ratelimit.Limiter,
	cs ConfigService,
	logger *logrus.Entry,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cfg := cs.GetConfig(r.Context()).RateLimits
			window := cfg.API
			bucket := "api"
			switch {
			case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/login"):
				window = cfg.Login
				bucket = "login"
			case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/users"):
				window = cfg.UserCreation
				bucket = "users"
			}
			key := bucket + ":" + ratelimit.RealIP(r)
			if !limiter.Allow(key, window.Limit, time.Duration(window.WindowSeconds)*time.Second) {
				logger.WithField(log.FldIP, ratelimit.RealIP(r)).Warn("Rate limit exceeded")
				writeError(r.Context(), w, MakeError(
					http.StatusTooManyRequests,
					ErrCodeRateLimitExceeded,
					"Too many requests - please slow down",
				))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// serviceUser is the synthetic account attached to requests of trusted service clients
var serviceUser = models.User{
	Email:     "service@rota.internal",
	FirstName: "Service",
	LastName:  "Client",
	Role:      models.RoleAdmin,
}

// makeAPIKeyMiddleware returns a middleware that authenticates service clients by
// their API key and attaches a synthetic admin user to the request
func makeAPIKeyMiddleware(cs ConfigService) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(HeaderAPIKey))
			if !cs.IsValidAPIKey(key) {
				writeError(r.Context(), w, MakeError(
					http.StatusUnauthorized,
					ErrCodeInvalidAPIKey,
					"Missing or unknown API key",
				))
				return
			}
			ctx := context.WithValue(r.Context(), ctxhelper.KeyUser, serviceUser)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
