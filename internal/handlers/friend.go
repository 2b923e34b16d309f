package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/unogo/unogo/internal/database"
)

// AddFriendHandler handles a user sending a friend request to another user.
//
// Request payload: { "username": "somename" }
// We store a row in the friends table with status='pending'.
func AddFriendHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	friend, err := database.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		http.Error(w, "no such user", http.StatusNotFound)
		return
	}
	if userID == friend.ID {
		http.Error(w, "cannot friend yourself", http.StatusBadRequest)
		return
	}

	if err := database.InsertFriendRequest(r.Context(), userID, friend.ID); err != nil {
		http.Error(w, fmt.Sprintf("failed to insert friend request: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write([]byte("friend request sent"))
}

// AcceptFriendHandler handles a user accepting a friend request that was sent to them.
//
// Request payload: { "friend_id": "some-uuid-string" }
// The pending row was stored as (friend_id -> user); we flip it to accepted.
func AcceptFriendHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		FriendID string `json:"friend_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	friendID, err := uuid.Parse(req.FriendID)
	if err != nil {
		http.Error(w, "invalid friend_id", http.StatusBadRequest)
		return
	}

	if err := database.AcceptFriend(r.Context(), friendID, userID); err != nil {
		http.Error(w, fmt.Sprintf("failed to accept friend: %v", err), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("friend request accepted"))
}

// ListFriendsHandler returns all friend relationships (pending or accepted)
// associated with the authenticated user.
func ListFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	friends, err := database.ListFriends(r.Context(), userID)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to list friends: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, friends)
}

// RemoveFriendHandler handles removing (unfriending) a user.
//
// Request payload: { "friend_id": "some-uuid-string" }
func RemoveFriendHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		FriendID string `json:"friend_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	friendID, err := uuid.Parse(req.FriendID)
	if err != nil {
		http.Error(w, "invalid friend_id", http.StatusBadRequest)
		return
	}

	if err := database.RemoveFriend(r.Context(), userID, friendID); err != nil {
		http.Error(w, fmt.Sprintf("failed to remove friend: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("friend removed"))
}
