// Provides platform-appropriate paths for application data.
//
// All paths follow XDG conventions on Linux and platform-native conventions
// on macOS and Windows. The application name "buildplan" is used as the
// subdirectory under each base path.
package paths
