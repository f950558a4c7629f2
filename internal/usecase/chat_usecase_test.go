package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastecycle/internal/domain/entity"
	apperrors "wastecycle/pkg/errors"
)

type fakeChatRepo struct {
	rooms    map[string]*entity.ChatRoom
	messages map[string][]*entity.Message

	createCount int
	// interceptCreate, when set, replaces the next Create call. Used to
	// simulate losing the create race to a concurrent initiator.
	interceptCreate func(room *entity.ChatRoom) error
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		rooms:    make(map[string]*entity.ChatRoom),
		messages: make(map[string][]*entity.Message),
	}
}

func (r *fakeChatRepo) Create(ctx context.Context, room *entity.ChatRoom) error {
	if r.interceptCreate != nil {
		fn := r.interceptCreate
		r.interceptCreate = nil
		return fn(room)
	}
	if _, exists := r.rooms[room.ID]; exists {
		return apperrors.Conflict("Chat room already exists", nil)
	}
	r.createCount++
	now := time.Now()
	room.CreatedAt = now
	room.UpdatedAt = now
	r.rooms[room.ID] = room
	return nil
}

func (r *fakeChatRepo) GetByID(ctx context.Context, id string) (*entity.ChatRoom, error) {
	room, ok := r.rooms[id]
	if !ok {
		return nil, apperrors.NotFound("Chat room", nil)
	}
	return room, nil
}

func (r *fakeChatRepo) ListByParticipant(ctx context.Context, userID string) ([]*entity.ChatRoom, error) {
	var out []*entity.ChatRoom
	for _, room := range r.rooms {
		if room.HasParticipant(userID) {
			out = append(out, room)
		}
	}
	return out, nil
}

func (r *fakeChatRepo) Update(ctx context.Context, room *entity.ChatRoom) error {
	if _, ok := r.rooms[room.ID]; !ok {
		return apperrors.NotFound("Chat room", nil)
	}
	room.UpdatedAt = time.Now()
	r.rooms[room.ID] = room
	return nil
}

func (r *fakeChatRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.rooms[id]; !ok {
		return apperrors.NotFound("Chat room", nil)
	}
	delete(r.rooms, id)
	delete(r.messages, id)
	return nil
}

func (r *fakeChatRepo) CreateMessage(ctx context.Context, message *entity.Message) error {
	message.ID = fmt.Sprintf("msg-%d", len(r.messages[message.ChatRoomID])+1)
	message.Timestamp = time.Now()
	r.messages[message.ChatRoomID] = append(r.messages[message.ChatRoomID], message)
	return nil
}

func (r *fakeChatRepo) ListMessagesByRoom(ctx context.Context, roomID string) ([]*entity.Message, error) {
	return r.messages[roomID], nil
}

type fakeUserRepo struct {
	users map[string]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*entity.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("User", nil)
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, apperrors.NotFound("User", nil)
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.users[user.ID] = user
	return nil
}

type fakeListingRepo struct {
	listings map[string]*entity.Listing
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{listings: make(map[string]*entity.Listing)}
}

func (r *fakeListingRepo) Create(ctx context.Context, listing *entity.Listing) error {
	r.listings[listing.ID] = listing
	return nil
}

func (r *fakeListingRepo) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	listing, ok := r.listings[id]
	if !ok {
		return nil, apperrors.NotFound("Listing", nil)
	}
	return listing, nil
}

func (r *fakeListingRepo) List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]*entity.Listing, int64, error) {
	var out []*entity.Listing
	for _, listing := range r.listings {
		out = append(out, listing)
	}
	return out, int64(len(out)), nil
}

func (r *fakeListingRepo) ListByOwnerID(ctx context.Context, ownerID string, limit, offset int) ([]*entity.Listing, int64, error) {
	var out []*entity.Listing
	for _, listing := range r.listings {
		if listing.OwnerID == ownerID {
			out = append(out, listing)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeListingRepo) Update(ctx context.Context, listing *entity.Listing) error {
	r.listings[listing.ID] = listing
	return nil
}

func (r *fakeListingRepo) Delete(ctx context.Context, id string) error {
	delete(r.listings, id)
	return nil
}

type fakeAuthClient struct {
	infos map[string]*AuthUserInfo
}

func newFakeAuthClient() *fakeAuthClient {
	return &fakeAuthClient{infos: make(map[string]*AuthUserInfo)}
}

func (c *fakeAuthClient) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	uid := fmt.Sprintf("uid-%d", len(c.infos)+1)
	c.infos[uid] = &AuthUserInfo{UID: uid, Email: email, DisplayName: displayName}
	return uid, nil
}

func (c *fakeAuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	return token, nil
}

func (c *fakeAuthClient) SignInWithEmailPassword(email, password string) (string, error) {
	return "token-" + email, nil
}

func (c *fakeAuthClient) GetUserInfo(ctx context.Context, uid string) (*AuthUserInfo, error) {
	info, ok := c.infos[uid]
	if !ok {
		return nil, fmt.Errorf("no auth record for %s", uid)
	}
	return info, nil
}

type chatFixture struct {
	uc       *ChatUseCase
	chatRepo *fakeChatRepo
	userRepo *fakeUserRepo
	listings *fakeListingRepo
	auth     *fakeAuthClient
}

func newChatFixture() *chatFixture {
	f := &chatFixture{
		chatRepo: newFakeChatRepo(),
		userRepo: newFakeUserRepo(),
		listings: newFakeListingRepo(),
		auth:     newFakeAuthClient(),
	}
	f.uc = NewChatUseCase(f.chatRepo, f.userRepo, f.listings, f.auth, nil)
	return f
}

func (f *chatFixture) seedUser(id, name string) {
	f.userRepo.users[id] = &entity.User{ID: id, Email: id + "@example.com", Name: name, Role: "user"}
}

func (f *chatFixture) seedListing(id, ownerID, title string) {
	f.listings.listings[id] = &entity.Listing{
		ID:       id,
		OwnerID:  ownerID,
		Title:    title,
		Category: "manure",
		Quantity: 500,
		Unit:     "kg",
		Price:    120,
		Images:   []string{"https://storage.googleapis.com/bucket/" + id + ".jpg"},
	}
}

func TestFindOrCreateRoomFirstContact(t *testing.T) {
	f := newChatFixture()
	f.seedUser("u1", "Ana")
	f.seedUser("u2", "Bram")
	f.seedListing("p1", "u2", "Composted cow manure")

	view, created, err := f.uc.FindOrCreateRoom(context.Background(), "u1", "p1")

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, RoomIDFor("u1", "u2", "p1"), view.ID)
	assert.ElementsMatch(t, []string{"u1", "u2"}, view.Participants)
	assert.Equal(t, "Ana", view.ParticipantNames["u1"])
	assert.Equal(t, "Bram", view.ParticipantNames["u2"])
	assert.Equal(t, "p1", view.ListingID)
	assert.Equal(t, "Composted cow manure", view.ListingTitle)
	assert.Equal(t, "u2", view.OtherParticipantID)
	assert.Equal(t, "Bram", view.OtherParticipantName)

	stored := f.chatRepo.rooms[view.ID]
	require.NotNil(t, stored)
	assert.Equal(t, "u1", stored.BuyerID)
	assert.Equal(t, "u2", stored.SellerID)
}

func TestFindOrCreateRoomIsIdempotent(t *testing.T) {
	f := newChatFixture()
	f.seedUser("u1", "Ana")
	f.seedUser("u2", "Bram")
	f.seedListing("p1", "u2", "Composted cow manure")

	first, created, err := f.uc.FindOrCreateRoom(context.Background(), "u1", "p1")
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := f.uc.FindOrCreateRoom(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.chatRepo.createCount, "repeat calls must not write again")
}

func TestFindOrCreateRoomLostRace(t *testing.T) {
	f := newChatFixture()
	f.seedUser("u1", "Ana")
	f.seedUser("u2", "Bram")
	f.seedListing("p1", "u2", "Composted cow manure")

	// The rival's create lands between our existence check and our write.
	f.chatRepo.interceptCreate = func(room *entity.ChatRoom) error {
		rival := &entity.ChatRoom{
			ID:           room.ID,
			Participants: []string{"u1", "u2"},
			ParticipantNames: map[string]string{
				"u1": "Ana",
				"u2": "Bram",
			},
			ListingID:   "p1",
			LastMessage: "already here",
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		f.chatRepo.rooms[rival.ID] = rival
		return apperrors.Conflict("Chat room already exists", nil)
	}

	view, created, err := f.uc.FindOrCreateRoom(context.Background(), "u1", "p1")

	require.NoError(t, err)
	assert.False(t, created, "losing the race must surface the winner's room")
	assert.Equal(t, "already here", view.LastMessage)
}

func TestFindOrCreateRoomRejectsSelfChat(t *testing.T) {
	f := newChatFixture()
	f.seedUser("u2", "Bram")
	f.seedListing("p1", "u2", "Composted cow manure")

	_, _, err := f.uc.FindOrCreateRoom(context.Background(), "u2", "p1")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "BAD_REQUEST"))
	assert.Equal(t, 0, f.chatRepo.createCount)
}

func TestFindOrCreateRoomUnknownListing(t *testing.T) {
	f := newChatFixture()

	_, _, err := f.uc.FindOrCreateRoom(context.Background(), "u1", "missing")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "NOT_FOUND"))
}

func TestFindOrCreateRoomNameFallbacks(t *testing.T) {
	f := newChatFixture()
	// u1 has no stored profile; the identity provider knows a display name.
	f.auth.infos["u1"] = &AuthUserInfo{UID: "u1", Email: "ana@example.com", DisplayName: "Ana K"}
	// u2 has neither profile nor display name, only an email.
	f.auth.infos["u2"] = &AuthUserInfo{UID: "u2", Email: "bram.dairy@example.com"}
	f.seedListing("p1", "u2", "Composted cow manure")

	view, created, err := f.uc.FindOrCreateRoom(context.Background(), "u1", "p1")

	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, "Ana K", view.ParticipantNames["u1"])
	assert.Equal(t, "bram.dairy", view.ParticipantNames["u2"])
}

func TestFindOrCreateRoomPlaceholderNames(t *testing.T) {
	f := newChatFixture()
	f.seedListing("p1", "u2", "Composted cow manure")

	view, created, err := f.uc.FindOrCreateRoom(context.Background(), "u1", "p1")

	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, "Buyer", view.ParticipantNames["u1"])
	assert.Equal(t, "Seller", view.ParticipantNames["u2"])
}

func TestGetRoomEnforcesMembership(t *testing.T) {
	f := newChatFixture()
	f.seedUser("u1", "Ana")
	f.seedUser("u2", "Bram")
	f.seedListing("p1", "u2", "Composted cow manure")

	view, _, err := f.uc.FindOrCreateRoom(context.Background(), "u1", "p1")
	require.NoError(t, err)

	_, err = f.uc.GetRoom(context.Background(), "u3", view.ID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "FORBIDDEN"))

	got, err := f.uc.GetRoom(context.Background(), "u2", view.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.OtherParticipantID)
	assert.Equal(t, "Ana", got.OtherParticipantName)
}

func TestGetRoomNotFound(t *testing.T) {
	f := newChatFixture()

	_, err := f.uc.GetRoom(context.Background(), "u1", "nope")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "NOT_FOUND"))
}

func TestPostMessageResolvesReceiverBothWays(t *testing.T) {
	f := newChatFixture()
	f.seedUser("u1", "Ana")
	f.seedUser("u2", "Bram")
	f.seedListing("p1", "u2", "Composted cow manure")

	view, _, err := f.uc.FindOrCreateRoom(context.Background(), "u1", "p1")
	require.NoError(t, err)

	m1, err := f.uc.PostMessage(context.Background(), "u1", view.ID, "Is the compost still available?")
	require.NoError(t, err)
	assert.Equal(t, "u2", m1.ReceiverID)

	m2, err := f.uc.PostMessage(context.Background(), "u2", view.ID, "Yes, 500kg left.")
	require.NoError(t, err)
	assert.Equal(t, "u1", m2.ReceiverID)

	messages, err := f.uc.ListMessages(context.Background(), "u1", view.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "Is the compost still available?", messages[0].Text)
	assert.Equal(t, "Yes, 500kg left.", messages[1].Text)

	room := f.chatRepo.rooms[view.ID]
	assert.Equal(t, "Yes, 500kg left.", room.LastMessage)
	assert.Equal(t, "u2", room.LastMessageSenderID)
}

func TestPostMessageRejectsEmptyText(t *testing.T) {
	f := newChatFixture()
	f.seedListing("p1", "u2", "Composted cow manure")

	view, _, err := f.uc.FindOrCreateRoom(context.Background(), "u1", "p1")
	require.NoError(t, err)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := f.uc.PostMessage(context.Background(), "u1", view.ID, text)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, "BAD_REQUEST"))
	}
	assert.Empty(t, f.chatRepo.messages[view.ID])
}

func TestPostMessageRejectsNonParticipant(t *testing.T) {
	f := newChatFixture()
	f.seedListing("p1", "u2", "Composted cow manure")

	view, _, err := f.uc.FindOrCreateRoom(context.Background(), "u1", "p1")
	require.NoError(t, err)

	_, err = f.uc.PostMessage(context.Background(), "u3", view.ID, "let me in")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "FORBIDDEN"))
	assert.Empty(t, f.chatRepo.messages[view.ID])
}

func TestPostMessageDegenerateRoom(t *testing.T) {
	f := newChatFixture()
	f.chatRepo.rooms["broken"] = &entity.ChatRoom{
		ID:           "broken",
		Participants: []string{"u1", "u1"},
		CreatedAt:    time.Now(),
	}

	_, err := f.uc.PostMessage(context.Background(), "u1", "broken", "hello?")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "INVALID_STATE"))
}

func TestPostMessageRateLimited(t *testing.T) {
	f := newChatFixture()
	f.seedListing("p1", "u2", "Composted cow manure")

	view, _, err := f.uc.FindOrCreateRoom(context.Background(), "u1", "p1")
	require.NoError(t, err)

	var limited bool
	for i := 0; i < 40; i++ {
		_, err := f.uc.PostMessage(context.Background(), "u1", view.ID, fmt.Sprintf("spam %d", i))
		if apperrors.Is(err, "TOO_MANY_REQUESTS") {
			limited = true
			break
		}
		require.NoError(t, err)
	}
	assert.True(t, limited, "bursting past the bucket must be rejected")
}

func TestDeleteRoomCascades(t *testing.T) {
	f := newChatFixture()
	f.seedListing("p1", "u2", "Composted cow manure")

	view, _, err := f.uc.FindOrCreateRoom(context.Background(), "u1", "p1")
	require.NoError(t, err)

	_, err = f.uc.PostMessage(context.Background(), "u1", view.ID, "first")
	require.NoError(t, err)
	_, err = f.uc.PostMessage(context.Background(), "u2", view.ID, "second")
	require.NoError(t, err)

	require.NoError(t, f.uc.DeleteRoom(context.Background(), view.ID))

	_, err = f.uc.GetRoom(context.Background(), "u1", view.ID)
	assert.True(t, apperrors.Is(err, "NOT_FOUND"))
	assert.Empty(t, f.chatRepo.messages[view.ID])

	err = f.uc.DeleteRoom(context.Background(), view.ID)
	assert.True(t, apperrors.Is(err, "NOT_FOUND"))
}

func TestListRoomsNewestFirst(t *testing.T) {
	f := newChatFixture()
	base := time.Now().Add(-time.Hour)

	f.chatRepo.rooms["r-old"] = &entity.ChatRoom{
		ID:           "r-old",
		Participants: []string{"u1", "u2"},
		CreatedAt:    base,
	}
	f.chatRepo.rooms["r-mid"] = &entity.ChatRoom{
		ID:           "r-mid",
		Participants: []string{"u1", "u3"},
		CreatedAt:    base,
		UpdatedAt:    base.Add(10 * time.Minute),
	}
	f.chatRepo.rooms["r-new"] = &entity.ChatRoom{
		ID:           "r-new",
		Participants: []string{"u1", "u4"},
		CreatedAt:    base,
		UpdatedAt:    base.Add(30 * time.Minute),
	}
	// u1 is not in this one; it must not appear.
	f.chatRepo.rooms["r-other"] = &entity.ChatRoom{
		ID:           "r-other",
		Participants: []string{"u5", "u6"},
		CreatedAt:    base.Add(time.Hour),
	}

	views, err := f.uc.ListRooms(context.Background(), "u1")

	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, "r-new", views[0].ID)
	assert.Equal(t, "r-mid", views[1].ID)
	assert.Equal(t, "r-old", views[2].ID, "rooms without updatedAt fall back to createdAt")
}

func TestListRoomsRequiresSubject(t *testing.T) {
	f := newChatFixture()

	_, err := f.uc.ListRooms(context.Background(), "")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "UNAUTHORIZED"))
}

func TestRoomViewLegacyNameFallback(t *testing.T) {
	f := newChatFixture()
	// A room written before participantNames existed: only flat fields.
	f.chatRepo.rooms["legacy"] = &entity.ChatRoom{
		ID:           "legacy",
		Participants: []string{"u1", "u2"},
		BuyerID:      "u1",
		SellerID:     "u2",
		BuyerName:    "Ana",
		SellerName:   "Bram",
		CreatedAt:    time.Now(),
	}

	view, err := f.uc.GetRoom(context.Background(), "u1", "legacy")

	require.NoError(t, err)
	assert.Equal(t, "Bram", view.OtherParticipantName)

	view, err = f.uc.GetRoom(context.Background(), "u2", "legacy")
	require.NoError(t, err)
	assert.Equal(t, "Ana", view.OtherParticipantName)
}

func TestBuyerSellerScenario(t *testing.T) {
	f := newChatFixture()
	f.seedUser("u1", "Ana")
	f.seedUser("u2", "Bram")
	f.seedUser("u3", "Cleo")
	f.seedListing("p1", "u2", "Composted cow manure")

	// Buyer opens the chat, seller answers.
	view, created, err := f.uc.FindOrCreateRoom(context.Background(), "u1", "p1")
	require.NoError(t, err)
	require.True(t, created)

	_, err = f.uc.PostMessage(context.Background(), "u1", view.ID, "Can you deliver?")
	require.NoError(t, err)
	_, err = f.uc.PostMessage(context.Background(), "u2", view.ID, "Within 20km, yes.")
	require.NoError(t, err)

	// A second interested buyer gets a distinct room for the same listing.
	other, created, err := f.uc.FindOrCreateRoom(context.Background(), "u3", "p1")
	require.NoError(t, err)
	require.True(t, created)
	assert.NotEqual(t, view.ID, other.ID)

	// Each buyer sees only their own conversation.
	u1Rooms, err := f.uc.ListRooms(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, u1Rooms, 1)
	assert.Equal(t, view.ID, u1Rooms[0].ID)

	// The seller sees both, the most recently active first.
	sellerRooms, err := f.uc.ListRooms(context.Background(), "u2")
	require.NoError(t, err)
	require.Len(t, sellerRooms, 2)
	assert.Equal(t, other.ID, sellerRooms[0].ID)

	// The outsider buyer cannot read the first conversation.
	_, err = f.uc.ListMessages(context.Background(), "u3", view.ID)
	assert.True(t, apperrors.Is(err, "FORBIDDEN"))
}
