package handlers

import (
	"net/url"
	"strconv"
	"time"

	config "github.com/brightlearn/tutor_backend/configs"
	"github.com/brightlearn/tutor_backend/utils"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v2"
)

const uploadFolder = "tutor_profile_pictures"

// GenerateUploadSignature signs a direct-to-Cloudinary upload so profile
// pictures never pass through this server.
func GenerateUploadSignature(c *fiber.Ctx) error {
	cloudinaryURL := config.Config("CLOUDINARY_URL")
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return utils.RespondError(c, utils.ExternalService("Upload service is not configured"))
	}

	parsedURL, err := url.Parse(cloudinaryURL)
	if err != nil {
		return utils.RespondError(c, utils.ExternalService("Upload service is not configured"))
	}
	secret, _ := parsedURL.User.Password()

	paramsToSign, err := api.StructToParams(uploader.UploadParams{
		Folder: uploadFolder,
	})
	if err != nil {
		return utils.RespondError(c, err)
	}

	timestamp := time.Now().Unix()
	paramsToSign.Set("timestamp", strconv.FormatInt(timestamp, 10))

	signature, err := api.SignParameters(paramsToSign, secret)
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"signature": signature,
		"timestamp": timestamp,
		"api_key":   cld.Config.Cloud.APIKey,
		"folder":    uploadFolder,
	})
}
