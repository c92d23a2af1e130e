/*
Package authclient talks to the SDA auth backend's REST API.

The backend issues a short-lived access token and a longer-lived refresh
token at login. The portal stores both and uses Refresh to swap an expired
access token for a new one:

	client := authclient.New("https://api.example.com")

	login, err := client.Login(ctx, "jo", "hunter2")
	// login.Access, login.Refresh, login.User.Role

	access, err := client.Refresh(ctx, login.Refresh)

Refresh presents the refresh token as the bearer credential with an empty
body. Any non-2xx response is returned as an *APIError carrying the status
and the backend's message:

	var apiErr *authclient.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		// send the user back to the login page
	}

Client satisfies guard.Refresher, so it can be handed to the session guard
directly. Every call runs inside an OpenTelemetry span named after the
operation.
*/
package authclient
