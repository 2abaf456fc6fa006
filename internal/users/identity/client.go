// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package identity

import (
	"context"
	"sync"
)

// Client is the browser-side view of the session store: it owns one session
// token and notifies listeners whenever that token changes hands.
//
// # Concurrency
//
// Client is safe for concurrent use. Listeners are invoked synchronously, in
// subscription order, outside the client's lock.
type Client struct {
	provider *Provider

	mu        sync.Mutex
	token     string
	listeners map[int]Listener
	order     []int
	nextID    int
}

// Token returns the current session token, or "" when signed out.
func (client *Client) Token() string {
	client.mu.Lock()
	defer client.mu.Unlock()
	return client.token
}

/*
GetSession resolves the stored token into a live session.

Returns:
  - *Session: nil when there is no token or it is no longer valid
  - error: Only infrastructure failures; an invalid token is not an error
*/
func (client *Client) GetSession(ctx context.Context) (*Session, error) {
	token := client.Token()
	if token == "" {
		return nil, nil
	}

	session, err := client.provider.Resolve(ctx, token)
	if err != nil {
		if IsSessionGone(err) {
			client.setToken(token, "")
			return nil, nil
		}
		return nil, err
	}

	return session, nil
}

// SignUp creates an account, adopts its session and emits [EventSignedIn].
func (client *Client) SignUp(ctx context.Context, email, password string, metadata Metadata) (*Session, error) {
	session, err := client.provider.SignUp(ctx, email, password, metadata)
	if err != nil {
		return nil, err
	}
	client.adopt(ctx, session)
	return session, nil
}

// SignIn authenticates, adopts the new session and emits [EventSignedIn].
func (client *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	session, err := client.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	client.adopt(ctx, session)
	return session, nil
}

// SignOut revokes sessions remotely per scope. The local token is dropped
// and [EventSignedOut] emitted even when the remote call fails.
func (client *Client) SignOut(ctx context.Context, scope Scope) error {
	token := client.Token()

	var err error
	if token != "" {
		err = client.provider.SignOut(ctx, token, scope)
	}

	client.setToken(token, "")
	client.emit(ctx, Event{Kind: EventSignedOut})

	return err
}

// OnAuthStateChange registers a listener for auth state changes.
func (client *Client) OnAuthStateChange(listener Listener) Subscription {
	client.mu.Lock()
	defer client.mu.Unlock()

	id := client.nextID
	client.nextID++
	client.listeners[id] = listener
	client.order = append(client.order, id)

	return &subscription{client: client, id: id}
}

func (client *Client) adopt(ctx context.Context, session *Session) {
	client.mu.Lock()
	client.token = session.AccessToken
	client.mu.Unlock()

	client.emit(ctx, Event{Kind: EventSignedIn, Session: session})
}

// setToken replaces the token only if it still equals expected.
func (client *Client) setToken(expected, next string) {
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.token == expected {
		client.token = next
	}
}

func (client *Client) emit(ctx context.Context, event Event) {
	client.mu.Lock()
	listeners := make([]Listener, 0, len(client.order))
	for _, id := range client.order {
		if listener, ok := client.listeners[id]; ok {
			listeners = append(listeners, listener)
		}
	}
	client.mu.Unlock()

	for _, listener := range listeners {
		listener(ctx, event)
	}
}

type subscription struct {
	client *Client
	once   sync.Once
	id     int
}

func (sub *subscription) Unsubscribe() {
	sub.once.Do(func() {
		sub.client.mu.Lock()
		defer sub.client.mu.Unlock()

		delete(sub.client.listeners, sub.id)
		for i, id := range sub.client.order {
			if id == sub.id {
				sub.client.order = append(sub.client.order[:i], sub.client.order[i+1:]...)
				break
			}
		}
	})
}
