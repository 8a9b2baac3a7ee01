//go:build release

package vk

import (
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
)

const enableValidationLayers = false

var validationLayers []string

func (d *Device) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{}
}

func (d *Device) setupDebugMessenger() error {
	return nil
}
