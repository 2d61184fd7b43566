// Package podfile resets a corrupted CocoaPods environment: wipe the
// generated dependency state, write a known-good Podfile, and reinstall
// through an ordered list of strategies.
package podfile

import (
	"fmt"
	"strings"
)

// TemplateOpts parameterize the generated Podfile.
type TemplateOpts struct {
	// PlatformVersion is the iOS platform floor (e.g. "13.0").
	PlatformVersion string

	// DisableFirebase skips the Firebase compiler-flag relaxations.
	DisableFirebase bool
}

// Generate produces the known-good Podfile content for a Flutter iOS
// project. The post_install hook applies the deployment target, disables
// code signing for pod targets, and relaxes compiler flags for the
// Firebase pod family.
func Generate(opts TemplateOpts) string {
	version := opts.PlatformVersion
	if version == "" {
		version = "13.0"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "platform :ios, '%s'\n", version)
	b.WriteString(`
# CocoaPods analytics sends network stats synchronously affecting flutter build latency.
ENV['COCOAPODS_DISABLE_STATS'] = 'true'

project 'Runner', {
  'Debug' => :debug,
  'Profile' => :release,
  'Release' => :release,
}

def flutter_root
  generated_xcode_build_settings_path = File.expand_path(File.join('..', 'Flutter', 'Generated.xcconfig'), __FILE__)
  unless File.exist?(generated_xcode_build_settings_path)
    raise "#{generated_xcode_build_settings_path} must exist. If you're running pod install manually, make sure flutter pub get is executed first"
  end

  File.foreach(generated_xcode_build_settings_path) do |line|
    matches = line.match(/FLUTTER_ROOT\=(.*)/)
    return matches[1].strip if matches
  end
  raise "FLUTTER_ROOT not found in #{generated_xcode_build_settings_path}. Try deleting Generated.xcconfig, then run flutter pub get"
end

require File.expand_path(File.join('packages', 'flutter_tools', 'bin', 'podhelper'), flutter_root)

flutter_ios_podfile_setup

target 'Runner' do
  use_frameworks!
  use_modular_headers!

  flutter_install_all_ios_pods File.dirname(File.realpath(__FILE__))
  target 'RunnerTests' do
    inherit! :search_paths
  end
end

post_install do |installer|
  installer.pods_project.targets.each do |target|
    flutter_additional_ios_build_settings(target)
    target.build_configurations.each do |config|
`)
	fmt.Fprintf(&b, "      config.build_settings['IPHONEOS_DEPLOYMENT_TARGET'] = '%s'\n", version)
	b.WriteString(`      config.build_settings['CODE_SIGNING_REQUIRED'] = 'NO'
      config.build_settings['CODE_SIGNING_ALLOWED'] = 'NO'
      config.build_settings['EXPANDED_CODE_SIGN_IDENTITY'] = ''
`)
	if !opts.DisableFirebase {
		b.WriteString(`      if target.name.start_with?('Firebase') || target.name.start_with?('firebase')
        config.build_settings['GCC_WARN_INHIBIT_ALL_WARNINGS'] = 'YES'
        config.build_settings['OTHER_CFLAGS'] = '$(inherited) -Wno-error=non-modular-include-in-framework-module'
        config.build_settings['CLANG_WARN_QUOTED_INCLUDE_IN_FRAMEWORK_HEADER'] = 'NO'
      end
`)
	}
	b.WriteString(`    end
  end
end
`)
	return b.String()
}
