package ctxutil

import "context"

type requestDataKey struct{}

// RequestData carries the authenticated subject for the current request.
type RequestData struct {
	TokenString string
	SubjectID   string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey{})
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}

// SubjectID returns the authenticated subject, or "" for anonymous requests.
func SubjectID(ctx context.Context) string {
	if rd := GetRequestData(ctx); rd != nil {
		return rd.SubjectID
	}
	return ""
}
