package helper

import (
	"errors"
	"fmt"
	"log"
	"net/mail"
	"time"

	"storefront/config"
	"storefront/database"
	"storefront/model"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var JwtSecret = []byte(config.Config("JWT_SECRET"))

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func Valid(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func GenerateAccessToken(tokenClaim model.TokenClaim) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["username"] = tokenClaim.Username
	claims["customerId"] = tokenClaim.CustomerId
	claims["storeId"] = tokenClaim.StoreId
	claims["exp"] = time.Now().Add(time.Minute * 60).Unix()

	t, err := token.SignedString(JwtSecret)
	return t, err
}

func ParseToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return JwtSecret, nil
	})

	return token, err
}

// GetInfoCustomerFromToken returns the logged-in customer, or a zero claim for
// guests. A token for another store is treated as a guest.
func GetInfoCustomerFromToken(c *fiber.Ctx, storeID uint) (model.TokenClaim, *model.Customer) {
	guest := model.TokenClaim{}

	userToken, ok := c.Locals("user").(*jwt.Token)
	if !ok || userToken == nil {
		return guest, nil
	}
	claims, ok := userToken.Claims.(jwt.MapClaims)
	if !ok {
		log.Println("Invalid claims type → guest")
		return guest, nil
	}

	customerID, _ := claims["customerId"].(float64)
	tokenStore, _ := claims["storeId"].(float64)
	if customerID == 0 || (storeID != 0 && uint(tokenStore) != storeID) {
		return guest, nil
	}
	username, _ := claims["username"].(string)

	var customer model.Customer
	if err := database.DB.First(&customer, uint(customerID)).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Customer lookup failed (id=%d): %v", uint(customerID), err)
		}
		return guest, nil
	}
	c.Locals("customer", &customer)

	return model.TokenClaim{CustomerId: customer.ID, StoreId: customer.StoreID, Username: username}, &customer
}
