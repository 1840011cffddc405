package controllers_test

import (
	"testing"

	"mcqbank/backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestRegisterAssignsReferralCode(t *testing.T) {
	resp, body := doJSON(t, "POST", "/api/auth/register", "", fiber.Map{
		"name":     "New User",
		"email":    "newuser@example.com",
		"password": "password123",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])

	user := body["user"].(map[string]interface{})
	assert.NotEmpty(t, user["referral_code"])
}

func TestRegisterRecordsReferrer(t *testing.T) {
	createUser(t, "referrer.register@example.com", "user", 0, "ref-register", "")

	resp, _ := doJSON(t, "POST", "/api/auth/register", "", fiber.Map{
		"name":       "Referred User",
		"email":      "referred@example.com",
		"password":   "password123",
		"referredBy": "ref-register",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var user models.User
	assert.NoError(t, db.Where("email = ?", "referred@example.com").First(&user).Error)
	assert.Equal(t, "ref-register", user.ReferredBy)
}

func TestLoginAndProfile(t *testing.T) {
	_, registerBody := doJSON(t, "POST", "/api/auth/register", "", fiber.Map{
		"name":     "Login User",
		"email":    "loginuser@example.com",
		"password": "password123",
	})
	assert.NotEmpty(t, registerBody["token"])

	resp, loginBody := doJSON(t, "POST", "/api/auth/login", "", fiber.Map{
		"email":    "loginuser@example.com",
		"password": "password123",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	token, _ := loginBody["token"].(string)
	assert.NotEmpty(t, token)

	resp, profile := doJSON(t, "GET", "/api/user/profile", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "loginuser@example.com", profile["email"])
}

func TestLoginRejectsBadPassword(t *testing.T) {
	doJSON(t, "POST", "/api/auth/register", "", fiber.Map{
		"email":    "badpass@example.com",
		"password": "password123",
	})

	resp, _ := doJSON(t, "POST", "/api/auth/login", "", fiber.Map{
		"email":    "badpass@example.com",
		"password": "wrong",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
