//go:build !release

package vk

import (
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
)

const enableValidationLayers = true

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}

func (d *Device) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    d.logDebug,
	}
}

func (d *Device) setupDebugMessenger() error {
	d.debugDriver = ext_debug_utils.CreateExtensionDriverFromCoreDriver(d.instanceDriver)
	messenger, res, err := d.debugDriver.CreateDebugUtilsMessenger(nil, d.debugMessengerOptions())
	if err != nil {
		return check("vkCreateDebugUtilsMessengerEXT", res, err)
	}
	d.debugMessenger = messenger
	return nil
}

func (d *Device) logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	if severity&ext_debug_utils.SeverityError != 0 {
		d.log.Error(data.Message, "type", msgType)
	} else {
		d.log.Warn(data.Message, "type", msgType)
	}
	return false
}
