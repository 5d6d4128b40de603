package routeservice

// DateTimeLayout is the wire format of RouteRequest.DateTime.
const DateTimeLayout = "2006-01-02T15:04"

// RouteRequest is the body of POST /api/route.
type RouteRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	DateTime string `json:"dateTime"`
}

// RouteResponse is the Route Service reply. Stops is nil when the
// payload has no stops array.
type RouteResponse struct {
	Stops *[]string `json:"stops"`
}
