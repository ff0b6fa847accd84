package config

// DefaultYAML is the starter config written by `pipewright init`.
const DefaultYAML = `# Pipewright pipeline configuration.
project_name: my-project
working_directory: .

build_commands:
  - name: clean
    command: echo 'Cleaning build artifacts...'
    timeout: 30
  - name: build
    command: make build
    timeout: 300

test_commands:
  - name: unit_tests
    command: make test
    timeout: 300
  - name: lint
    command: make lint
    timeout: 60

deployment_commands:
  - name: package
    command: echo 'Packaging application...'
    timeout: 60

# Optional: notify Shoutrrr services after a run. Failures always notify;
# set on_success to also notify on green runs.
#notifications:
#  on_success: false
#  services:
#    team_chat:
#      url: slack://token-a/token-b/token-c
`
