package server

import (
	"context"
	"errors"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicatePhone = errors.New("phone number already registered")
	ErrLevelFull      = errors.New("level already has 4 places")
	ErrBadPlaceIndex  = errors.New("place index out of range")
)

// Sentinels returned from ModifyProgress callbacks to abort the transaction
// without mutating the record.
var (
	errWrongPlace    = errors.New("wrong place for this level")
	errGameCompleted = errors.New("game already completed")
)

const (
	minLevelNumber = 1
	maxLevelNumber = 5
	maxPlaces      = 4
)

type Store interface {
	CreateUser(ctx context.Context, u userDoc) error
	UserByID(ctx context.Context, id string) (userDoc, error)
	UserByPhone(ctx context.Context, phone string) (userDoc, error)
	ListUsers(ctx context.Context) ([]userDoc, error)
	ModifyUser(ctx context.Context, id string, fn func(*userDoc) error) (userDoc, error)
	DeleteUser(ctx context.Context, id string) error
	CountUsers(ctx context.Context) (int, error)

	Levels(ctx context.Context) ([]trailLevelDoc, error)
	Level(ctx context.Context, levelNumber int) (trailLevelDoc, error)
	AppendPlace(ctx context.Context, levelNumber int, p placeDoc) (trailLevelDoc, error)
	ReplacePlace(ctx context.Context, levelNumber, index int, p placeDoc) (trailLevelDoc, error)
	DeleteLevel(ctx context.Context, levelNumber int) error

	CreateProgress(ctx context.Context, p progressDoc) error
	ProgressByPlayer(ctx context.Context, playerID string) (progressDoc, error)
	ModifyProgress(ctx context.Context, playerID string, fn func(*progressDoc) error) (progressDoc, error)
	ListProgress(ctx context.Context) ([]progressDoc, error)
}
