package db

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

const (
	userIDPrefix       = "us-"
	taskIDPrefix       = "tk-"
	delegationIDPrefix = "dl-"
	ticketIDPrefix     = "ht-"
	sessionIDPrefix    = "ses-"
)

// NormalizeTaskID ensures a task ID has the tk- prefix.
// Accepts bare hex IDs like "abc123" and returns "tk-abc123".
func NormalizeTaskID(id string) string {
	if id == "" {
		return id
	}
	if !strings.HasPrefix(id, taskIDPrefix) {
		return taskIDPrefix + id
	}
	return id
}

// NormalizeTicketID ensures a ticket ID has the ht- prefix.
func NormalizeTicketID(id string) string {
	if id == "" {
		return id
	}
	if !strings.HasPrefix(id, ticketIDPrefix) {
		return ticketIDPrefix + id
	}
	return id
}

// idGenerator is the function used to generate entity IDs.
// It can be replaced in tests to control ID generation.
var idGenerator = defaultGenerateID

// defaultGenerateID generates a unique ID with the given prefix using
// crypto/rand. 6 hex characters balances brevity with collision resistance.
func defaultGenerateID(prefix string) (string, error) {
	bytes := make([]byte, 3)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return prefix + hex.EncodeToString(bytes), nil
}

func generateUserID() (string, error) {
	return idGenerator(userIDPrefix)
}

func generateTaskID() (string, error) {
	return idGenerator(taskIDPrefix)
}

func generateDelegationID() (string, error) {
	return idGenerator(delegationIDPrefix)
}

func generateTicketID() (string, error) {
	return idGenerator(ticketIDPrefix)
}

func generateSessionID() (string, error) {
	return idGenerator(sessionIDPrefix)
}
