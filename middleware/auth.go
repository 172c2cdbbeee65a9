package middleware

import (
	"strings"

	"clinicbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PatientIDKey is the gin context key holding the authenticated patient id.
const PatientIDKey = "patientID"

// OptionalPatientAuth resolves the authenticated patient from a bearer token
// when one is presented. Requests without a token proceed as guests; an
// invalid token is also treated as a guest rather than rejected, since the
// whole booking flow is open to guests.
func OptionalPatientAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.Next()
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		patientID, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.GetLogger().Debug("ignoring invalid bearer token", zap.Error(err))
			c.Next()
			return
		}
		c.Set(PatientIDKey, patientID)
		c.Next()
	}
}

// PatientID returns the authenticated patient id from the context, or empty
// for guests.
func PatientID(c *gin.Context) string {
	return c.GetString(PatientIDKey)
}
