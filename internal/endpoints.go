package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-kit/kit/endpoint"
	"github.com/haldre/rota/internal/ctxhelper"
	"github.com/haldre/rota/internal/models"
)

// EventEndpoints is a collection of endpoints for working with the event service
type EventEndpoints struct {
	List              endpoint.Endpoint
	Get               endpoint.Endpoint
	Create            endpoint.Endpoint
	Update            endpoint.Endpoint
	Delete            endpoint.Endpoint
	Setlist           endpoint.Endpoint
	AddToSetlist      endpoint.Endpoint
	RemoveFromSetlist endpoint.Endpoint
	Availability      endpoint.Endpoint
}

// SongEndpoints is a collection of endpoints for working with the song service
type SongEndpoints struct {
	List   endpoint.Endpoint
	Get    endpoint.Endpoint
	Create endpoint.Endpoint
	Update endpoint.Endpoint
	Delete endpoint.Endpoint
}

// BlockoutEndpoints is a collection of endpoints for working with the blockout service
type BlockoutEndpoints struct {
	List   endpoint.Endpoint
	Get    endpoint.Endpoint
	Create endpoint.Endpoint
	Update endpoint.Endpoint
	Delete endpoint.Endpoint
}

// UserEndpoints is a collection of endpoints for managing user accounts
type UserEndpoints struct {
	List   endpoint.Endpoint
	Get    endpoint.Endpoint
	Create endpoint.Endpoint
	Update endpoint.Endpoint
	Delete endpoint.Endpoint
}

// SessionEndpoints is a collection of endpoints for working with the session service
type SessionEndpoints struct {
	Login  endpoint.Endpoint
	Logout endpoint.Endpoint
	WhoAmI endpoint.Endpoint
}

// HealthEndpoints is a collection of endpoints for the health service
type HealthEndpoints struct {
	Check endpoint.Endpoint
}

// statusResponse wraps a response body with an explicit HTTP status code
type statusResponse struct {
	status int
	body   interface{}
}

// StatusCode implements the statusCoder interface used by the response encoder
func (r statusResponse) StatusCode() int {
	return r.status
}

// MarshalJSON serializes only the wrapped body
func (r statusResponse) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.body)
}

// created wraps the given body into a 201 response
func created(body interface{}) statusResponse {
	return statusResponse{http.StatusCreated, body}
}

// noContent is the empty 204 response returned by delete operations
var noContent = statusResponse{status: http.StatusNoContent}

// setlistEntryRequest is a set-list addition bound to an event ID from the request path
type setlistEntryRequest struct {
	EventID uint
	Entry   SetlistAddRequest
}

// setlistRemoveRequest identifies one entry of an event's set list
type setlistRemoveRequest struct {
	EventID uint
	SongID  uint
}

// userUpdateRequest is a user write request bound to a user ID from the request path
type userUpdateRequest struct {
	ID   uint
	Data UserWriteRequest
}

// -- Events -----------------------------------------------------------------------------------------------------------

// MakeEventEndpoints creates the endpoints needed for using the event service
func MakeEventEndpoints(s EventService) EventEndpoints {
	return EventEndpoints{
		List:              EnsureUserLoggedIn(MakeListEventsEndpoint(s)),
		Get:               EnsureUserLoggedIn(MakeGetEventEndpoint(s)),
		Create:            EnsureAdmin(MakeCreateEventEndpoint(s)),
		Update:            EnsureAdmin(MakeUpdateEventEndpoint(s)),
		Delete:            EnsureAdmin(MakeDeleteEventEndpoint(s)),
		Setlist:           EnsureUserLoggedIn(MakeEventSetlistEndpoint(s)),
		AddToSetlist:      EnsureAdmin(MakeAddToSetlistEndpoint(s)),
		RemoveFromSetlist: EnsureAdmin(MakeRemoveFromSetlistEndpoint(s)),
		Availability:      EnsureUserLoggedIn(MakeEventAvailabilityEndpoint(s)),
	}
}

// MakeListEventsEndpoint returns an endpoint calling the List method on the provided EventService
func MakeListEventsEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(EventListRequest)
		if !ok {
			return nil, fmt.Errorf("illegal event list parameter")
		}
		return s.List(ctx, &req)
	}
}

// MakeGetEventEndpoint returns an endpoint calling the Get method on the provided EventService
func MakeGetEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(uint)
		if !ok {
			return nil, fmt.Errorf("illegal event ID")
		}
		return s.Get(ctx, id)
	}
}

// MakeCreateEventEndpoint returns an endpoint calling the Create method on the provided EventService
func MakeCreateEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		event, ok := request.(models.Event)
		if !ok {
			return nil, fmt.Errorf("illegal event parameter")
		}
		ev, err := s.Create(ctx, &event)
		if err != nil {
			return nil, err
		}
		return created(ev), nil
	}
}

// MakeUpdateEventEndpoint returns an endpoint calling the Update method on the provided EventService
func MakeUpdateEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		event, ok := request.(models.Event)
		if !ok {
			return nil, fmt.Errorf("illegal event parameter")
		}
		return s.Update(ctx, &event)
	}
}

// MakeDeleteEventEndpoint returns an endpoint calling the Delete method on the provided EventService
func MakeDeleteEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(uint)
		if !ok {
			return nil, fmt.Errorf("illegal event ID")
		}
		if err := s.Delete(ctx, id); err != nil {
			return nil, err
		}
		return noContent, nil
	}
}

// MakeEventSetlistEndpoint returns an endpoint calling the Setlist method on the provided EventService
func MakeEventSetlistEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(uint)
		if !ok {
			return nil, fmt.Errorf("illegal event ID")
		}
		return s.Setlist(ctx, id)
	}
}

// MakeAddToSetlistEndpoint returns an endpoint calling the AddToSetlist method on the provided EventService
func MakeAddToSetlistEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(setlistEntryRequest)
		if !ok {
			return nil, fmt.Errorf("illegal set list entry request")
		}
		if err := s.AddToSetlist(ctx, req.EventID, &req.Entry); err != nil {
			return nil, err
		}
		return created(nil), nil
	}
}

// MakeRemoveFromSetlistEndpoint returns an endpoint calling the RemoveFromSetlist method on the provided EventService
func MakeRemoveFromSetlistEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(setlistRemoveRequest)
		if !ok {
			return nil, fmt.Errorf("illegal set list entry request")
		}
		if err := s.RemoveFromSetlist(ctx, req.EventID, req.SongID); err != nil {
			return nil, err
		}
		return noContent, nil
	}
}

// MakeEventAvailabilityEndpoint returns an endpoint calling the Availability method on the provided EventService
func MakeEventAvailabilityEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(uint)
		if !ok {
			return nil, fmt.Errorf("illegal event ID")
		}
		return s.Availability(ctx, id)
	}
}

// -- Songs ------------------------------------------------------------------------------------------------------------

// MakeSongEndpoints creates the endpoints needed for using the song service
func MakeSongEndpoints(s SongService) SongEndpoints {
	return SongEndpoints{
		List:   EnsureUserLoggedIn(MakeListSongsEndpoint(s)),
		Get:    EnsureUserLoggedIn(MakeGetSongEndpoint(s)),
		Create: EnsureAdmin(MakeCreateSongEndpoint(s)),
		Update: EnsureAdmin(MakeUpdateSongEndpoint(s)),
		Delete: EnsureAdmin(MakeDeleteSongEndpoint(s)),
	}
}

// MakeListSongsEndpoint returns an endpoint calling the List method on the provided SongService
func MakeListSongsEndpoint(s SongService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(SongListRequest)
		if !ok {
			return nil, fmt.Errorf("illegal song list parameter")
		}
		return s.List(ctx, &req)
	}
}

// MakeGetSongEndpoint returns an endpoint calling the Get method on the provided SongService
func MakeGetSongEndpoint(s SongService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(uint)
		if !ok {
			return nil, fmt.Errorf("illegal song ID")
		}
		return s.Get(ctx, id)
	}
}

// MakeCreateSongEndpoint returns an endpoint calling the Create method on the provided SongService
func MakeCreateSongEndpoint(s SongService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		song, ok := request.(models.Song)
		if !ok {
			return nil, fmt.Errorf("illegal song parameter")
		}
		res, err := s.Create(ctx, &song)
		if err != nil {
			return nil, err
		}
		return created(res), nil
	}
}

// MakeUpdateSongEndpoint returns an endpoint calling the Update method on the provided SongService
func MakeUpdateSongEndpoint(s SongService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		song, ok := request.(models.Song)
		if !ok {
			return nil, fmt.Errorf("illegal song parameter")
		}
		return s.Update(ctx, &song)
	}
}

// MakeDeleteSongEndpoint returns an endpoint calling the Delete method on the provided SongService
func MakeDeleteSongEndpoint(s SongService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(uint)
		if !ok {
			return nil, fmt.Errorf("illegal song ID")
		}
		if err := s.Delete(ctx, id); err != nil {
			return nil, err
		}
		return noContent, nil
	}
}

// -- Blockouts --------------------------------------------------------------------------------------------------------

// MakeBlockoutEndpoints creates the endpoints needed for using the blockout service.
// Ownership checks happen inside the service, so the endpoints only require a login.
func MakeBlockoutEndpoints(s BlockoutService) BlockoutEndpoints {
	return BlockoutEndpoints{
		List:   EnsureUserLoggedIn(MakeListBlockoutsEndpoint(s)),
		Get:    EnsureUserLoggedIn(MakeGetBlockoutEndpoint(s)),
		Create: EnsureUserLoggedIn(MakeCreateBlockoutEndpoint(s)),
		Update: EnsureUserLoggedIn(MakeUpdateBlockoutEndpoint(s)),
		Delete: EnsureUserLoggedIn(MakeDeleteBlockoutEndpoint(s)),
	}
}

// MakeListBlockoutsEndpoint returns an endpoint calling the List method on the provided BlockoutService
func MakeListBlockoutsEndpoint(s BlockoutService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(BlockoutListRequest)
		if !ok {
			return nil, fmt.Errorf("illegal blockout list parameter")
		}
		return s.List(ctx, &req)
	}
}

// MakeGetBlockoutEndpoint returns an endpoint calling the Get method on the provided BlockoutService
func MakeGetBlockoutEndpoint(s BlockoutService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(uint)
		if !ok {
			return nil, fmt.Errorf("illegal blockout ID")
		}
		return s.Get(ctx, id)
	}
}

// MakeCreateBlockoutEndpoint returns an endpoint calling the Create method on the provided BlockoutService
func MakeCreateBlockoutEndpoint(s BlockoutService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		blockout, ok := request.(models.Blockout)
		if !ok {
			return nil, fmt.Errorf("illegal blockout parameter")
		}
		b, err := s.Create(ctx, &blockout)
		if err != nil {
			return nil, err
		}
		return created(b), nil
	}
}

// MakeUpdateBlockoutEndpoint returns an endpoint calling the Update method on the provided BlockoutService
func MakeUpdateBlockoutEndpoint(s BlockoutService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		blockout, ok := request.(models.Blockout)
		if !ok {
			return nil, fmt.Errorf("illegal blockout parameter")
		}
		return s.Update(ctx, &blockout)
	}
}

// MakeDeleteBlockoutEndpoint returns an endpoint calling the Delete method on the provided BlockoutService
func MakeDeleteBlockoutEndpoint(s BlockoutService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(uint)
		if !ok {
			return nil, fmt.Errorf("illegal blockout ID")
		}
		if err := s.Delete(ctx, id); err != nil {
			return nil, err
		}
		return noContent, nil
	}
}

// -- Users ------------------------------------------------------------------------------------------------------------

// MakeUserEndpoints creates the endpoints needed for managing user accounts.
// Reading and updating a single account is allowed for the account's owner as
// well, so those endpoints only require a login - the service checks the rest.
func MakeUserEndpoints(s UserService) UserEndpoints {
	return UserEndpoints{
		List:   EnsureAdmin(MakeListUsersEndpoint(s)),
		Get:    EnsureUserLoggedIn(MakeGetUserEndpoint(s)),
		Create: EnsureAdmin(MakeCreateUserEndpoint(s)),
		Update: EnsureUserLoggedIn(MakeUpdateUserEndpoint(s)),
		Delete: EnsureAdmin(MakeDeleteUserEndpoint(s)),
	}
}

// MakeListUsersEndpoint returns an endpoint calling the List method on the provided UserService
func MakeListUsersEndpoint(s UserService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(UserListRequest)
		if !ok {
			return nil, fmt.Errorf("illegal user list parameter")
		}
		return s.List(ctx, &req)
	}
}

// MakeGetUserEndpoint returns an endpoint calling the Get method on the provided UserService
func MakeGetUserEndpoint(s UserService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(uint)
		if !ok {
			return nil, fmt.Errorf("illegal user ID")
		}
		return s.Get(ctx, id)
	}
}

// MakeCreateUserEndpoint returns an endpoint calling the Create method on the provided UserService
func MakeCreateUserEndpoint(s UserService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(UserWriteRequest)
		if !ok {
			return nil, fmt.Errorf("illegal user parameter")
		}
		u, err := s.Create(ctx, &req)
		if err != nil {
			return nil, err
		}
		return created(u), nil
	}
}

// MakeUpdateUserEndpoint returns an endpoint calling the Update method on the provided UserService
func MakeUpdateUserEndpoint(s UserService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(userUpdateRequest)
		if !ok {
			return nil, fmt.Errorf("illegal user parameter")
		}
		return s.Update(ctx, req.ID, &req.Data)
	}
}

// MakeDeleteUserEndpoint returns an endpoint calling the Delete method on the provided UserService
func MakeDeleteUserEndpoint(s UserService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(uint)
		if !ok {
			return nil, fmt.Errorf("illegal user ID")
		}
		if err := s.Delete(ctx, id); err != nil {
			return nil, err
		}
		return noContent, nil
	}
}

// -- Sessions ---------------------------------------------------------------------------------------------------------

// MakeSessionEndpoints creates the endpoints needed for using the session service
func MakeSessionEndpoints(s SessionService) SessionEndpoints {
	return SessionEndpoints{
		Login:  MakeLoginEndpoint(s),
		Logout: EnsureUserLoggedIn(MakeLogoutEndpoint(s)),
		WhoAmI: EnsureUserLoggedIn(MakeWhoAmIEndpoint(s)),
	}
}

// MakeLoginEndpoint returns an endpoint calling the Login method on the provided SessionService
func MakeLoginEndpoint(s SessionService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(LoginRequest)
		if !ok {
			return nil, fmt.Errorf("illegal login request")
		}
		return s.Login(ctx, req.Email, req.Password)
	}
}

// MakeLogoutEndpoint returns an endpoint calling the Logout method on the provided SessionService
func MakeLogoutEndpoint(s SessionService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		sess := ctxhelper.Session(ctx)
		if err := s.Logout(ctx, sess.ID); err != nil {
			return nil, err
		}
		return noContent, nil
	}
}

// MakeWhoAmIEndpoint returns an endpoint calling the WhoAmI method on the provided SessionService
func MakeWhoAmIEndpoint(s SessionService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		sess := ctxhelper.Session(ctx)
		return s.WhoAmI(ctx, sess.ID)
	}
}

// -- Health -----------------------------------------------------------------------------------------------------------

// MakeHealthEndpoints creates the endpoints needed for using the health service
func MakeHealthEndpoints(s HealthService) HealthEndpoints {
	return HealthEndpoints{
		Check: MakeHealthCheckEndpoint(s),
	}
}

// MakeHealthCheckEndpoint returns an endpoint calling the Check method on the provided HealthService
func MakeHealthCheckEndpoint(s HealthService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		return s.Check(ctx), nil
	}
}
