package usecase

import (
	"context"
	"regexp"
	"testing"
	"time"

	"Aidmap-App/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type guestFixture struct {
	uc     GuestUseCase
	loc    *locationFixture
	guests *fakeGuestRepo
	sms    *fakeSMS
}

func newGuestFixture(enabled bool, hourLimit int) *guestFixture {
	f := &guestFixture{
		loc:    newLocationFixture(false),
		guests: &fakeGuestRepo{},
		sms:    &fakeSMS{},
	}
	f.uc = NewGuestUseCase(GuestDeps{
		Guests:    f.guests,
		OTP:       &fakeOTPStore{},
		Limiter:   &fakeLimiter{},
		SMS:       f.sms,
		Locations: f.loc.uc,
		Enabled:   enabled,
		Expire:    5 * time.Minute,
		HourLimit: hourLimit,
		Logger:    testLogger,
	})
	return f
}

func TestRequestOTPThenLocation(t *testing.T) {
	ctx := context.Background()
	f := newGuestFixture(true, 3)
	phone := "+380501234567"

	res, err := f.uc.RequestOTP(ctx, phone, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, 5, res.ExpirationMinutes)
	code := f.sms.codes[phone]
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)
	require.Len(t, f.guests.items, 1)
	assert.Equal(t, 1, f.guests.items[0].TotalOTPRequests)

	_, err = f.uc.RequestLocation(ctx, &model.LocationRequestOTP{PhoneNumber: phone, OTP: "000000x", Lat: 49.23, Lng: 28.47})
	assert.Equal(t, "Provided otp is not valid or expired", model.MessageOf(err, ""))

	sub, err := f.uc.RequestLocation(ctx, &model.LocationRequestOTP{PhoneNumber: phone, OTP: code, Lat: 49.23, Lng: 28.47})
	require.NoError(t, err)
	require.Equal(t, model.SubmissionCreated, sub.Outcome)
	require.NotNil(t, sub.Location.RequestedBy)
	assert.Equal(t, f.guests.items[0].ID, *sub.Location.RequestedBy)

	// コードは使い捨て
	_, err = f.uc.RequestLocation(ctx, &model.LocationRequestOTP{PhoneNumber: phone, OTP: code, Lat: 49.23, Lng: 28.47})
	assert.ErrorIs(t, err, model.ErrBadRequest)
}

func TestRequestLocation_VerifyAttemptsLimited(t *testing.T) {
	ctx := context.Background()
	f := newGuestFixture(true, 3)
	phone := "+380501234567"

	_, err := f.uc.RequestOTP(ctx, phone, "10.0.0.1")
	require.NoError(t, err)
	code := f.sms.codes[phone]
	wrong := "999999"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < otpVerifyAttempts; i++ {
		_, err := f.uc.RequestLocation(ctx, &model.LocationRequestOTP{PhoneNumber: phone, OTP: wrong, Lat: 49.23, Lng: 28.47})
		assert.ErrorIs(t, err, model.ErrBadRequest)
	}

	_, err = f.uc.RequestLocation(ctx, &model.LocationRequestOTP{PhoneNumber: phone, OTP: code, Lat: 49.23, Lng: 28.47})
	assert.ErrorIs(t, err, model.ErrRateLimited)
	assert.Empty(t, f.loc.locations.items)
}

func TestRequestLocation_WrongCodeCreatesNoGuest(t *testing.T) {
	f := newGuestFixture(true, 3)

	_, err := f.uc.RequestLocation(context.Background(), &model.LocationRequestOTP{PhoneNumber: "+380671112233", OTP: "123456", Lat: 49.23, Lng: 28.47})
	assert.ErrorIs(t, err, model.ErrBadRequest)
	assert.Empty(t, f.guests.items)
}

func TestRequestOTP_RateLimited(t *testing.T) {
	ctx := context.Background()
	f := newGuestFixture(true, 2)

	for i := 0; i < 2; i++ {
		_, err := f.uc.RequestOTP(ctx, "+380501234567", "10.0.0.1")
		require.NoError(t, err)
	}
	_, err := f.uc.RequestOTP(ctx, "+380501234567", "10.0.0.1")
	assert.ErrorIs(t, err, model.ErrRateLimited)

	_, err = f.uc.RequestOTP(ctx, "+380501234567", "10.0.0.2")
	assert.NoError(t, err)
}

func TestGuest_Disabled(t *testing.T) {
	ctx := context.Background()
	f := newGuestFixture(false, 3)

	_, err := f.uc.RequestOTP(ctx, "+380501234567", "10.0.0.1")
	assert.Equal(t, "Cannot send an otp code, please try again later.", model.MessageOf(err, ""))

	_, err = f.uc.RequestLocation(ctx, &model.LocationRequestOTP{PhoneNumber: "+380501234567", OTP: "123456"})
	assert.Equal(t, "Cannot verify otp codes at the moment, please try again later.", model.MessageOf(err, ""))
}

func TestRequestOTP_SMSFailure(t *testing.T) {
	f := newGuestFixture(true, 3)
	f.sms.err = model.ErrUnavailable

	_, err := f.uc.RequestOTP(context.Background(), "+380501234567", "10.0.0.1")
	assert.ErrorIs(t, err, model.ErrBadRequest)
	assert.Zero(t, f.guests.items[0].TotalOTPRequests)
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateOTP()
		require.NoError(t, err)
		assert.Len(t, code, 6)
	}
}
